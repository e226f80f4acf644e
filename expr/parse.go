package expr

import (
	"strconv"
	"strings"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/bind/constants"
	"github.com/ygrebnov/bind/errors"
)

// Parse tokenizes a dotted path string (e.g., "Person.Address.City" or
// "Items[2]") into a normalized Chain.
// Behavior:
//   - Splits on top-level dots only (dots inside brackets do not split tokens).
//   - Trims whitespace around tokens and indexer arguments.
//   - Indexer arguments must be literals: integers, quoted strings, floats,
//     or true/false. Identifiers are treated as dynamic indices and rejected.
//   - Method-call tokens (Name(...)) and operator expressions are rejected
//     with ErrUnsupportedExpression.
func Parse(path string) (Chain, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.ErrEmptyChain
	}

	if err := rejectOperators(path); err != nil {
		return nil, err
	}

	node := Path()
	for _, tok := range splitTopLevel(path, '.') {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return nil, errorc.With(
				errors.ErrUnsupportedExpression,
				errorc.String(errors.ErrorFieldExpression, path),
				errorc.String(errors.ErrorFieldHint, "empty path segment"),
			)
		}

		switch {
		case strings.HasSuffix(tok, ")") && strings.ContainsRune(tok, '('):
			idx := strings.IndexRune(tok, '(')
			name := strings.TrimSpace(tok[:idx])
			args, err := parseArgs(path, tok[idx+1:len(tok)-1])
			if err != nil {
				return nil, err
			}
			if strings.HasPrefix(name, constants.AccessorCallPrefix) {
				node = node.AccessorCall(name, args...)
			} else {
				node = node.Call(name, args...)
			}

		case strings.HasSuffix(tok, "]") && strings.ContainsRune(tok, '['):
			idx := strings.IndexRune(tok, '[')
			name := strings.TrimSpace(tok[:idx])
			args, err := parseArgs(path, tok[idx+1:len(tok)-1])
			if err != nil {
				return nil, err
			}
			node = node.Index(name, args...)

		default:
			if !isIdentifier(tok) {
				return nil, errorc.With(
					errors.ErrUnsupportedExpression,
					errorc.String(errors.ErrorFieldExpression, tok),
				)
			}
			node = node.Member(tok)
		}
	}

	return Normalize(node)
}

// splitTopLevel splits s on sep, ignoring separators nested inside brackets,
// parentheses, or quoted strings.
func splitTopLevel(s string, sep rune) []string {
	var tokens []string
	depth := 0
	inQuote := false
	start := 0
	for i, r := range s {
		switch {
		case inQuote:
			if r == '"' {
				inQuote = false
			}
		case r == '"':
			inQuote = true
		case r == '[' || r == '(':
			depth++
		case r == ']' || r == ')':
			if depth > 0 {
				depth--
			}
		case r == sep && depth == 0:
			tokens = append(tokens, s[start:i])
			start = i + 1
		}
	}
	if start <= len(s) {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

// parseArgs parses a comma-separated indexer argument list into constant
// values. Anything that is not a literal is a dynamic index.
func parseArgs(path, inner string) ([]any, error) {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return nil, nil
	}
	var args []any
	for _, part := range splitTopLevel(inner, ',') {
		part = strings.TrimSpace(part)
		lit, ok := parseLiteral(part)
		if !ok {
			return nil, errorc.With(
				errors.ErrUnsupportedExpression,
				errorc.String(errors.ErrorFieldExpression, path),
				errorc.String(errors.ErrorFieldIndexArg, part),
				errorc.String(errors.ErrorFieldHint, "indexer arguments must be constants"),
			)
		}
		args = append(args, lit)
	}
	return args, nil
}

func parseLiteral(s string) (any, bool) {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return nil, false
		}
		return unquoted, true
	}
	if s == "true" {
		return true, true
	}
	if s == "false" {
		return false, true
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	return nil, false
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// operators that indicate an accidental comparison or boolean expression
// inside what should be a pure property path.
var binaryOperators = []string{"==", "!=", "&&", "||"}

func rejectOperators(path string) error {
	for _, op := range binaryOperators {
		idx := indexTopLevel(path, op)
		if idx < 0 {
			continue
		}
		left := strings.TrimSpace(path[:idx])
		right := strings.TrimSpace(path[idx+len(op):])
		return errorc.With(
			errors.ErrUnsupportedExpression,
			errorc.String(errors.ErrorFieldExpression, path),
			errorc.String(errors.ErrorFieldOperator, op),
			errorc.String(errors.ErrorFieldLeftOperand, left),
			errorc.String(errors.ErrorFieldRightOperand, right),
			errorc.String(errors.ErrorFieldHint,
				"did you mean two separate chains instead of an operator expression?"),
		)
	}
	return nil
}

func indexTopLevel(s, op string) int {
	depth := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch {
		case inQuote:
			if s[i] == '"' {
				inQuote = false
			}
		case s[i] == '"':
			inQuote = true
		case s[i] == '[' || s[i] == '(':
			depth++
		case s[i] == ']' || s[i] == ')':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 && strings.HasPrefix(s[i:], op) {
				return i
			}
		}
	}
	return -1
}

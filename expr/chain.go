package expr

import (
	"fmt"
	"strings"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/bind/constants"
	"github.com/ygrebnov/bind/errors"
)

// StepKind discriminates normalized chain steps.
type StepKind int

const (
	// StepMember reads a field or a property by name.
	StepMember StepKind = iota
	// StepIndexer reads the named member and indexes into it with constant
	// arguments.
	StepIndexer
)

// Step is one single-step accessor of a normalized chain.
type Step struct {
	Kind StepKind
	Name string
	Args []any
}

func (s Step) String() string {
	if s.Kind == StepIndexer {
		return s.Name + "[" + renderArgs(s.Args) + "]"
	}
	return s.Name
}

// Chain is the canonical ordered sequence of steps derived from a binding
// expression, root first. It is immutable once produced.
type Chain []Step

func (c Chain) String() string {
	parts := make([]string, len(c))
	for i, s := range c {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// Normalize converts an expression tree into a canonical Chain. It either
// produces the full chain or fails with ErrUnsupportedExpression; no partial
// chain is ever returned.
func Normalize(n *Node) (Chain, error) {
	if n == nil {
		return nil, errors.ErrEmptyChain
	}

	// Walk right to left, collecting steps in reverse.
	var reversed []Step
	for cur := n; cur != nil; cur = cur.Prev {
		switch cur.Kind {
		case KindRoot:
			// The root contributes nothing and terminates the walk.
			if len(reversed) == 0 {
				return nil, errors.ErrEmptyChain
			}
			chain := make(Chain, len(reversed))
			for i, s := range reversed {
				chain[len(reversed)-1-i] = s
			}
			return chain, nil

		case KindMember:
			reversed = append(reversed, Step{Kind: StepMember, Name: cur.Name})

		case KindIndex:
			if err := requireConstantArgs(cur, cur.Args); err != nil {
				return nil, err
			}
			reversed = append(reversed, Step{Kind: StepIndexer, Name: cur.Name, Args: cur.Args})

		case KindLength:
			reversed = append(reversed, Step{Kind: StepMember, Name: constants.LengthMember})

		case KindConvert:
			// Conversions are discarded entirely, target type included.

		case KindCall:
			step, err := rewriteAccessorCall(cur)
			if err != nil {
				return nil, err
			}
			reversed = append(reversed, step)

		case KindBinary:
			return nil, errorc.With(
				errors.ErrUnsupportedExpression,
				errorc.String(errors.ErrorFieldExpression, cur.String()),
				errorc.String(errors.ErrorFieldOperator, cur.Op),
				errorc.String(errors.ErrorFieldLeftOperand, cur.Left.String()),
				errorc.String(errors.ErrorFieldRightOperand, cur.Right.String()),
				errorc.String(errors.ErrorFieldHint,
					"did you mean two separate chains instead of an operator expression?"),
			)

		default:
			return nil, errorc.With(
				errors.ErrUnsupportedExpression,
				errorc.String(errors.ErrorFieldExpression, cur.String()),
			)
		}
	}

	// Chain was built without a root node.
	return nil, errorc.With(
		errors.ErrUnsupportedExpression,
		errorc.String(errors.ErrorFieldExpression, n.String()),
		errorc.String(errors.ErrorFieldHint, "expression has no root"),
	)
}

// rewriteAccessorCall turns a special-name accessor call into an indexer
// step. Plain method calls are rejected.
func rewriteAccessorCall(n *Node) (Step, error) {
	if !n.Special {
		return Step{}, errorc.With(
			errors.ErrUnsupportedExpression,
			errorc.String(errors.ErrorFieldExpression, n.String()),
			errorc.String(errors.ErrorFieldHint, "method calls are not supported in binding expressions"),
		)
	}
	if err := requireConstantArgs(n, n.Args); err != nil {
		return Step{}, err
	}
	name := strings.TrimPrefix(n.Name, constants.AccessorCallPrefix)
	return Step{Kind: StepIndexer, Name: name, Args: n.Args}, nil
}

func requireConstantArgs(n *Node, args []any) error {
	for i, a := range args {
		if d, ok := a.(DynamicArg); ok {
			return errorc.With(
				errors.ErrUnsupportedExpression,
				errorc.String(errors.ErrorFieldExpression, n.String()),
				errorc.String(errors.ErrorFieldIndexArg, fmt.Sprintf("%s (position %d)", d.Text, i)),
				errorc.String(errors.ErrorFieldHint, "indexer arguments must be constants"),
			)
		}
	}
	return nil
}

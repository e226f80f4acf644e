// Package expr models binding expressions as a small closed AST and
// normalizes them into canonical chains of single-step accessors.
//
// An expression is built either with the fluent builder starting at Path, or
// by parsing a dotted path string with Parse. Normalize converts the tree
// into a Chain, rejecting shapes the binding engine cannot evaluate.
package expr

import (
	"fmt"
	"strings"
)

// Kind discriminates AST node shapes.
type Kind int

const (
	KindRoot Kind = iota
	KindMember
	KindIndex
	KindLength
	KindConvert
	KindCall
	KindBinary
)

// Node is one vertex of a binding expression. Nodes form a left-to-right
// access chain through Prev; Binary nodes instead hold two independent
// operand chains and exist only to be rejected with a useful diagnostic.
type Node struct {
	Kind Kind
	Prev *Node

	// Name is the member, indexer, or called method name.
	Name string
	// Args holds indexer or call arguments. A DynamicArg value marks an
	// argument that is not a compile-time constant.
	Args []any
	// Special marks accessor-style calls (the get_Item shape) that may be
	// rewritten into indexer steps.
	Special bool
	// TypeName is the conversion target for Convert nodes. It is rendered in
	// diagnostics only; normalization discards it entirely.
	TypeName string

	// Op, Left, Right describe a Binary node.
	Op    string
	Left  *Node
	Right *Node
}

// DynamicArg marks an indexer or call argument whose value is not constant.
// Text carries the source rendering of the argument for diagnostics.
type DynamicArg struct {
	Text string
}

// Path starts a new expression at its root. The root itself contributes no
// step to the normalized chain.
func Path() *Node {
	return &Node{Kind: KindRoot}
}

// Member appends a field or property access.
func (n *Node) Member(name string) *Node {
	return &Node{Kind: KindMember, Prev: n, Name: name}
}

// Index appends an indexer access on the named member. Arguments must be
// constants; use a DynamicArg value to represent a non-constant argument
// (which Normalize rejects).
func (n *Node) Index(name string, args ...any) *Node {
	return &Node{Kind: KindIndex, Prev: n, Name: name, Args: args}
}

// Length appends an array-length access. Normalize rewrites it into a member
// step with the synthetic Length name.
func (n *Node) Length() *Node {
	return &Node{Kind: KindLength, Prev: n}
}

// As wraps the chain so far in a type conversion. The conversion is stripped
// during normalization and the target type is not recorded on the chain;
// evaluation relies purely on runtime dispatch afterwards.
func (n *Node) As(typeName string) *Node {
	return &Node{Kind: KindConvert, Prev: n, TypeName: typeName}
}

// Call appends a plain method call. Normalize rejects it.
func (n *Node) Call(name string, args ...any) *Node {
	return &Node{Kind: KindCall, Prev: n, Name: name, Args: args}
}

// AccessorCall appends an accessor-style call (the get_Item shape some
// binding front ends emit for indexers). Normalize rewrites it into an
// indexer step when every argument is constant.
func (n *Node) AccessorCall(name string, args ...any) *Node {
	return &Node{Kind: KindCall, Prev: n, Name: name, Args: args, Special: true}
}

// Binary builds an operator node over two operand chains. It exists so that
// accidental comparisons inside a binding expression can be diagnosed with
// both operands named.
func Binary(op string, left, right *Node) *Node {
	return &Node{Kind: KindBinary, Op: op, Left: left, Right: right}
}

// String renders the expression for diagnostics.
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case KindRoot:
		return ""
	case KindMember:
		return join(n.Prev.String(), n.Name)
	case KindIndex:
		return join(n.Prev.String(), n.Name+"["+renderArgs(n.Args)+"]")
	case KindLength:
		return join(n.Prev.String(), "Length")
	case KindConvert:
		return "(" + n.TypeName + ")(" + n.Prev.String() + ")"
	case KindCall:
		return join(n.Prev.String(), n.Name+"("+renderArgs(n.Args)+")")
	case KindBinary:
		return n.Left.String() + " " + n.Op + " " + n.Right.String()
	default:
		return fmt.Sprintf("<kind %d>", int(n.Kind))
	}
}

func join(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}

func renderArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case DynamicArg:
			parts[i] = v.Text
		case string:
			parts[i] = fmt.Sprintf("%q", v)
		default:
			parts[i] = fmt.Sprintf("%v", v)
		}
	}
	return strings.Join(parts, ", ")
}

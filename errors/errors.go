package errors

import (
	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/bind/constants"
)

var namespace = errorc.Namespace(constants.Namespace)

// Sentinel errors for binding setup and evaluation failures. Use errors.Is
// to match.
var (
	ErrNilObject             = namespace.NewError("nil object")
	ErrEmptyChain            = namespace.NewError("expression chain is empty")
	ErrUnsupportedExpression = namespace.NewError("unsupported expression shape")
	ErrMissingAccessor       = namespace.NewError("member is neither a field nor a property")
	ErrUnaddressable         = namespace.NewError("cannot set member on unaddressable value")
	ErrConversion            = namespace.NewError("no converter matches value")
	ErrNoBinderFound         = namespace.NewError("no command binder accepts target")
	ErrMissingEvent          = namespace.NewError("event does not exist on target")
	ErrNotCommand            = namespace.NewError("bound value is not a command")
	ErrCannotExecute         = namespace.NewError("command cannot execute")
)

var newKey = errorc.KeyFactory(constants.ErrorFieldNamespace)

// Internal hierarchical segments used to build dotted keys.
const (
	keySegmentExpr    = "expr"
	keySegmentMember  = "member"
	keySegmentConvert = "convert"
	keySegmentCommand = "command"
)

// Exported structured error field keys
var (
	ErrorFieldExpression   = newKey("text", keySegmentExpr)      // bind.expr.text
	ErrorFieldLeftOperand  = newKey("left", keySegmentExpr)      // bind.expr.left
	ErrorFieldRightOperand = newKey("right", keySegmentExpr)     // bind.expr.right
	ErrorFieldOperator     = newKey("operator", keySegmentExpr)  // bind.expr.operator
	ErrorFieldHint         = newKey("hint", keySegmentExpr)      // bind.expr.hint
	ErrorFieldIndexArg     = newKey("index_arg", keySegmentExpr) // bind.expr.index_arg
)

var (
	ErrorFieldMemberName = newKey("name", keySegmentMember)       // bind.member.name
	ErrorFieldOwnerType  = newKey("owner_type", keySegmentMember) // bind.member.owner_type
)

var (
	ErrorFieldFromType = newKey("from_type", keySegmentConvert) // bind.convert.from_type
	ErrorFieldToType   = newKey("to_type", keySegmentConvert)   // bind.convert.to_type
)

var (
	ErrorFieldTargetType = newKey("target_type", keySegmentCommand) // bind.command.target_type
	ErrorFieldEventName  = newKey("event_name", keySegmentCommand)  // bind.command.event_name
)

var (
	ErrorFieldPath  = newKey("path")
	ErrorFieldPhase = newKey("phase")
)

package constants

const Namespace = "bind"

// ErrorFieldNamespace for all exported error field keys.
const ErrorFieldNamespace = Namespace

// LengthMember is the synthetic member name produced when an array-length
// access is normalized into a plain member step.
const LengthMember = "Length"

// AccessorCallPrefix marks accessor-style method calls (the get_Item shape)
// that the chain walker rewrites into indexer steps.
const AccessorCallPrefix = "get_"

// Member names probed by the property-based command binder.
const (
	CommandMember          = "Command"
	CommandParameterMember = "CommandParameter"
)

// DefaultEvents lists event names probed, in priority order, when a command
// is bound to an event source without an explicit event name.
var DefaultEvents = []string{"Click", "Tapped", "TouchUpInside"}

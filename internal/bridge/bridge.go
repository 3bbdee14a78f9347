// Package bridge defines the runtime metadata bridge: the capability set
// the interception engine needs from a managed runtime (resolve classes,
// enumerate the loaded class namespace, look up method overloads, install
// replacement implementations, construct interface instances).
// Implementations differ only in how they talk to the underlying runtime.
package bridge

import "context"

// ClassHandle identifies a resolved class inside the target runtime.
type ClassHandle struct {
	Name string `json:"name"` // fully-qualified class name
	Ref  string `json:"ref"`  // bridge-internal reference token
}

// MethodHandle identifies a single method overload on a resolved class.
// Params is the ordered parameter-type descriptor list; two overloads of
// the same name are distinguished solely by this sequence.
type MethodHandle struct {
	Class  string   `json:"class"`
	Name   string   `json:"name"`
	Params []string `json:"params"`
	Ref    string   `json:"ref"`
}

// ObjectHandle references an instance constructed inside the target runtime.
type ObjectHandle struct {
	Interface string `json:"interface"`
	Ref       string `json:"ref"`
}

// BodyKind selects the replacement implementation installed over a method.
type BodyKind string

const (
	// BodyReturnTrue ignores all arguments and returns boolean success.
	BodyReturnTrue BodyKind = "return_true"
	// BodyReturnFirstArg returns the first argument unmodified.
	BodyReturnFirstArg BodyKind = "return_first_arg"
	// BodyNoOp performs no action and returns no value.
	BodyNoOp BodyKind = "no_op"
	// BodyDelegate calls through to the original method with one argument
	// replaced by Substitute.
	BodyDelegate BodyKind = "delegate"
	// BodyInvokeArg calls InvokeMethod on the argument at ArgIndex and
	// returns no value.
	BodyInvokeArg BodyKind = "invoke_arg"
)

// Body is the declarative description of a replacement implementation.
// It must be serializable: remote bridges ship it into the target process.
type Body struct {
	Kind         BodyKind      `json:"kind"`
	ArgIndex     int           `json:"arg_index,omitempty"`
	Substitute   *ObjectHandle `json:"substitute,omitempty"`
	InvokeMethod string        `json:"invoke_method,omitempty"`
}

// Result is a canned return value for a constructed instance's method.
type Result string

const (
	ResultTrue       Result = "true"
	ResultVoid       Result = "void"
	ResultFirstArg   Result = "first_arg"
	ResultEmptyArray Result = "empty_array"
)

// Behavior maps method names of an interface to canned results. Construct
// builds an instance whose every listed method returns its Result and
// whose unlisted methods are left to the runtime's defaults.
type Behavior map[string]Result

// Bridge is the capability surface consumed by the interception engine.
// Calls are synchronous; the engine never invokes them concurrently.
type Bridge interface {
	// ResolveClass resolves a fully-qualified class name to a handle.
	// Returns an error satisfying IsClassNotFound when the class is not
	// in the loaded set.
	ResolveClass(ctx context.Context, name string) (ClassHandle, error)

	// LoadedClassNames enumerates every class name currently loaded in
	// the target process. The sequence is finite and re-enumerable; it
	// may change between calls as the process loads classes.
	LoadedClassNames(ctx context.Context) ([]string, error)

	// Overloads returns every overload of the named method on the class.
	// An absent method yields an empty slice, not an error.
	Overloads(ctx context.Context, class ClassHandle, method string) ([]MethodHandle, error)

	// Install replaces the implementation of a method overload. The patch
	// lives in the runtime for the remainder of the process; re-installing
	// over an already-patched method re-assigns the body and is never an
	// error.
	Install(ctx context.Context, method MethodHandle, body Body) error

	// Construct builds an instance implementing the given interface whose
	// methods behave per the supplied behavior table.
	Construct(ctx context.Context, iface ClassHandle, behavior Behavior) (ObjectHandle, error)
}

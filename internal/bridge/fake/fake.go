// Package fake provides an in-memory bridge implementation with a scripted
// class registry. Tests use it to verify overload selection and replacement
// behavior; the CLI uses it for dry runs against a synthetic class set.
package fake

import (
	"context"
	"fmt"
	"sort"

	"github.com/joss/unpin/internal/bridge"
)

// Method is one scripted overload. Final methods reject installation the
// way a real runtime rejects overriding a final/native method.
type Method struct {
	Params []string
	Final  bool
}

type methodKey struct {
	class  string
	name   string
	params string
}

func keyOf(class, name string, params []string) methodKey {
	return methodKey{class: class, name: name, params: fmt.Sprint(params)}
}

// Bridge is an in-memory bridge.Bridge. Zero value is not usable; call New.
type Bridge struct {
	classes    map[string]map[string][]Method
	installs   map[methodKey]bridge.Body
	constructs map[string]bridge.Behavior
	proceeds   []string // records InvokeArg side effects by object ref

	nextObj int
}

// New creates an empty fake bridge.
func New() *Bridge {
	return &Bridge{
		classes:    make(map[string]map[string][]Method),
		installs:   make(map[methodKey]bridge.Body),
		constructs: make(map[string]bridge.Behavior),
	}
}

// AddClass registers a class with its methods. Calling it again for the
// same class merges the method sets.
func (b *Bridge) AddClass(name string, methods map[string][]Method) {
	if b.classes[name] == nil {
		b.classes[name] = make(map[string][]Method)
	}
	for m, overloads := range methods {
		b.classes[name][m] = append(b.classes[name][m], overloads...)
	}
}

// AddInterface registers an interface type so Construct can resolve it.
func (b *Bridge) AddInterface(name string) {
	b.AddClass(name, nil)
}

// ResolveClass implements bridge.Bridge.
func (b *Bridge) ResolveClass(_ context.Context, name string) (bridge.ClassHandle, error) {
	if _, ok := b.classes[name]; !ok {
		return bridge.ClassHandle{}, &bridge.ClassNotFoundError{Class: name}
	}
	return bridge.ClassHandle{Name: name, Ref: "class:" + name}, nil
}

// LoadedClassNames implements bridge.Bridge. Names are returned sorted so
// scans are deterministic.
func (b *Bridge) LoadedClassNames(context.Context) ([]string, error) {
	names := make([]string, 0, len(b.classes))
	for name := range b.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Overloads implements bridge.Bridge.
func (b *Bridge) Overloads(_ context.Context, class bridge.ClassHandle, method string) ([]bridge.MethodHandle, error) {
	methods, ok := b.classes[class.Name]
	if !ok {
		return nil, &bridge.ClassNotFoundError{Class: class.Name}
	}
	var handles []bridge.MethodHandle
	for _, m := range methods[method] {
		handles = append(handles, bridge.MethodHandle{
			Class:  class.Name,
			Name:   method,
			Params: m.Params,
			Ref:    fmt.Sprintf("method:%s.%s%v", class.Name, method, m.Params),
		})
	}
	return handles, nil
}

// Install implements bridge.Bridge. Re-installing over a patched method
// re-assigns the body.
func (b *Bridge) Install(_ context.Context, method bridge.MethodHandle, body bridge.Body) error {
	overloads := b.classes[method.Class][method.Name]
	for _, m := range overloads {
		if fmt.Sprint(m.Params) == fmt.Sprint(method.Params) {
			if m.Final {
				return &bridge.InstallError{Class: method.Class, Method: method.Name, Reason: "method is final"}
			}
			b.installs[keyOf(method.Class, method.Name, method.Params)] = body
			return nil
		}
	}
	return &bridge.MethodNotFoundError{Class: method.Class, Method: method.Name}
}

// Construct implements bridge.Bridge.
func (b *Bridge) Construct(_ context.Context, iface bridge.ClassHandle, behavior bridge.Behavior) (bridge.ObjectHandle, error) {
	if _, ok := b.classes[iface.Name]; !ok {
		return bridge.ObjectHandle{}, &bridge.ClassNotFoundError{Class: iface.Name}
	}
	b.nextObj++
	ref := fmt.Sprintf("obj:%d:%s", b.nextObj, iface.Name)
	b.constructs[ref] = behavior
	return bridge.ObjectHandle{Interface: iface.Name, Ref: ref}, nil
}

// Installed returns the body patched over the given overload, if any.
func (b *Bridge) Installed(class, method string, params []string) (bridge.Body, bool) {
	body, ok := b.installs[keyOf(class, method, params)]
	return body, ok
}

// InstallCount returns the number of patched overloads.
func (b *Bridge) InstallCount() int {
	return len(b.installs)
}

// ConstructCount returns how many instances have been constructed.
func (b *Bridge) ConstructCount() int {
	return len(b.constructs)
}

// BehaviorOf returns the behavior table of a constructed instance.
func (b *Bridge) BehaviorOf(obj bridge.ObjectHandle) (bridge.Behavior, bool) {
	behavior, ok := b.constructs[obj.Ref]
	return behavior, ok
}

// Proceeds lists object refs whose method was invoked via an invoke-arg
// body, in invocation order.
func (b *Bridge) Proceeds() []string {
	return b.proceeds
}

// Invoke emulates a call to an overload after patching, applying the
// installed body's semantics. It returns the call's return value and the
// argument list the original implementation would receive (nil when the
// original is not invoked at all).
func (b *Bridge) Invoke(class, method string, params []string, args []any) (ret any, forwarded []any, err error) {
	body, ok := b.installs[keyOf(class, method, params)]
	if !ok {
		return nil, args, nil // unpatched: original runs with args as-is
	}

	switch body.Kind {
	case bridge.BodyReturnTrue:
		return true, nil, nil
	case bridge.BodyReturnFirstArg:
		if len(args) == 0 {
			return nil, nil, nil
		}
		return args[0], nil, nil
	case bridge.BodyNoOp:
		return nil, nil, nil
	case bridge.BodyDelegate:
		if body.ArgIndex < 0 || body.ArgIndex >= len(args) {
			return nil, nil, fmt.Errorf("delegate arg index %d out of range", body.ArgIndex)
		}
		forwarded = make([]any, len(args))
		copy(forwarded, args)
		forwarded[body.ArgIndex] = *body.Substitute
		return nil, forwarded, nil
	case bridge.BodyInvokeArg:
		if body.ArgIndex < 0 || body.ArgIndex >= len(args) {
			return nil, nil, fmt.Errorf("invoke arg index %d out of range", body.ArgIndex)
		}
		if obj, ok := args[body.ArgIndex].(bridge.ObjectHandle); ok {
			b.proceeds = append(b.proceeds, obj.Ref+"."+body.InvokeMethod)
		}
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown body kind %q", body.Kind)
	}
}

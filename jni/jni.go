// Package jni declares the host-runtime interface surface that generated
// bridge code links against: raw ABI value types, the environment capability,
// and the value-conversion helpers. The actual marshaling implementation is
// supplied by the embedding application through RegisterRuntime; this package
// only fixes the contract the generated code is written against.
package jni

import "fmt"

// Raw ABI value types, matching the host calling convention. The zero value
// of every reference type is the null reference; the zero value of every
// numeric type is a valid host value. Exported entry points rely on this when
// returning a zeroed sentinel after raising an exception.
type (
	EnvRef    uintptr
	ObjectRef uintptr
	ClassRef  uintptr
	StringRef uintptr

	BoolRef   uint8
	ByteRef   int8
	ShortRef  int16
	CharRef   uint16
	IntRef    int32
	LongRef   int64
	FloatRef  float32
	DoubleRef float64
)

// Runtime is the capability the embedding application provides for one
// attached host environment. Generated code never constructs one; it reaches
// the runtime through Env.
type Runtime interface {
	// ThrowNew raises a host exception of the given slash-separated class.
	ThrowNew(class, msg string) error
	// CallMethod invokes an instance method by class path, name and
	// descriptor. Arguments are raw ABI values.
	CallMethod(obj ObjectRef, class, name, descriptor string, args ...any) (any, error)
	// CallStaticMethod invokes a static method by class path, name and
	// descriptor.
	CallStaticMethod(class, name, descriptor string, args ...any) (any, error)
	// NewString converts a Go string to a host string reference.
	NewString(s string) (StringRef, error)
	// GetString converts a host string reference to a Go string.
	GetString(ref StringRef) (string, error)
}

var runtimeFactory func(EnvRef) Runtime

// RegisterRuntime installs the factory that attaches a Runtime to a raw
// environment handle. It must be called once before any exported entry point
// runs, typically from the native library's load hook.
func RegisterRuntime(f func(EnvRef) Runtime) {
	runtimeFactory = f
}

// Env wraps a raw environment handle for the duration of one native call.
type Env struct {
	Ref EnvRef
	rt  Runtime
}

// Wrap attaches the registered runtime to a raw environment handle.
func Wrap(ref EnvRef) *Env {
	if runtimeFactory == nil {
		panic("jni: no runtime registered")
	}
	return &Env{Ref: ref, rt: runtimeFactory(ref)}
}

// ThrowNew raises a host exception. Failures to raise are swallowed: by the
// time an entry point throws, the only remaining action is to return the
// zeroed sentinel anyway.
func (e *Env) ThrowNew(class, msg string) {
	_ = e.rt.ThrowNew(class, msg)
}

// CallMethod invokes an instance method on the host object.
func (e *Env) CallMethod(obj ObjectRef, class, name, descriptor string, args ...any) (any, error) {
	ret, err := e.rt.CallMethod(obj, class, name, descriptor, args...)
	if err != nil {
		return nil, fmt.Errorf("calling %s.%s%s: %w", class, name, descriptor, err)
	}
	return ret, nil
}

// CallStaticMethod invokes a static method on the host class.
func (e *Env) CallStaticMethod(class, name, descriptor string, args ...any) (any, error) {
	ret, err := e.rt.CallStaticMethod(class, name, descriptor, args...)
	if err != nil {
		return nil, fmt.Errorf("calling %s.%s%s: %w", class, name, descriptor, err)
	}
	return ret, nil
}

// Object pairs a host object reference with the environment it is valid in.
// Bridged structs hold one in their instance field.
type Object struct {
	Env *Env
	Ref ObjectRef
}

// IsNil reports whether the object is the null reference.
func (o Object) IsNil() bool {
	return o.Ref == 0
}

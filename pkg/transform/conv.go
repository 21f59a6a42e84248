package transform

import (
	"github.com/dave/jennifer/jen"

	"github.com/giovanniberti/hostbridge/pkg/abi"
)

// Emission helpers for conversion call sites. Primitive conversions go
// through the jni package; bridged struct conversions go through the
// functions the derive pass synthesizes in the same output file.

// refType renders the raw ABI type of a mapping.
func refType(m abi.Mapping) *jen.Statement {
	return jen.Qual(jniPath, m.Ref)
}

// fromHost renders the conversion of a raw host value into its Go value.
// Checked conversions yield (value, error); unchecked ones yield the value
// and panic on failure.
func fromHost(env string, m abi.Mapping, src jen.Code, checked bool) *jen.Statement {
	if m.Object {
		name := m.TypeName + "FromObject"
		if checked {
			name = "Try" + name
		}
		return jen.Id(name).Call(jen.Id(env), src)
	}
	prefix := "Go"
	if checked {
		prefix = "TryGo"
	}
	return jen.Qual(jniPath, prefix+m.Conv).Call(jen.Id(env), src)
}

// toHost renders the conversion of a Go value into its raw host value.
// Object conversions delegate to the instance field and are infallible in
// both modes; use toHostInfallible to know which shape the call site gets.
func toHost(env string, m abi.Mapping, src *jen.Statement, checked bool) *jen.Statement {
	if m.Object {
		return src.Dot("Object").Call()
	}
	prefix := "Java"
	if checked {
		prefix = "TryJava"
	}
	return jen.Qual(jniPath, prefix+m.Conv).Call(jen.Id(env), src)
}

// toHostInfallible reports whether toHost yields a bare value even in
// checked mode.
func toHostInfallible(m abi.Mapping) bool {
	return m.Object
}

// fromResult renders the narrowing of an untyped host call result into the
// Go value of a mapping. For object mappings the checked form yields
// (value, error) through a two-step conversion the caller must emit; this
// helper covers the primitive single-call forms.
func fromResult(env string, m abi.Mapping, src jen.Code, checked bool) *jen.Statement {
	suffix := m.Conv + "Result"
	if checked {
		return jen.Qual(jniPath, "Try"+suffix).Call(jen.Id(env), src)
	}
	return jen.Qual(jniPath, suffix).Call(jen.Id(env), src)
}

// zeroValue renders the zero literal of a mapping's Go type, used for error
// returns from imported safe methods.
func zeroValue(m abi.Mapping) *jen.Statement {
	switch {
	case m.Object:
		return jen.Id(m.TypeName).Values()
	case m.Go == "string":
		return jen.Lit("")
	case m.Go == "bool":
		return jen.False()
	}
	return jen.Lit(0)
}

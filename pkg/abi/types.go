package abi

import "github.com/giovanniberti/hostbridge/pkg/ast"

// Mapping relates a Go-side type to its raw host-ABI value type, its
// descriptor, and the suffix of the conversion helpers that move values
// across the boundary.
type Mapping struct {
	Go         string // Go-side type, e.g. "string"
	Ref        string // raw ABI type in the jni package, e.g. "StringRef"
	Descriptor string // host descriptor encoding, e.g. "Ljava/lang/String;"
	Conv       string // conversion helper suffix, e.g. "String"
	Object     bool   // true for bridged struct types
	TypeName   string // bridged struct name, Object mappings only
}

var primitives = map[string]Mapping{
	"bool":    {Go: "bool", Ref: "BoolRef", Descriptor: "Z", Conv: "Bool"},
	"int8":    {Go: "int8", Ref: "ByteRef", Descriptor: "B", Conv: "Byte"},
	"int16":   {Go: "int16", Ref: "ShortRef", Descriptor: "S", Conv: "Short"},
	"uint16":  {Go: "uint16", Ref: "CharRef", Descriptor: "C", Conv: "Char"},
	"int32":   {Go: "int32", Ref: "IntRef", Descriptor: "I", Conv: "Int"},
	"int64":   {Go: "int64", Ref: "LongRef", Descriptor: "J", Conv: "Long"},
	"float32": {Go: "float32", Ref: "FloatRef", Descriptor: "F", Conv: "Float"},
	"float64": {Go: "float64", Ref: "DoubleRef", Descriptor: "D", Conv: "Double"},
	"string":  {Go: "string", Ref: "StringRef", Descriptor: "Ljava/lang/String;", Conv: "String"},
}

// Primitive looks up the ABI mapping for a Go primitive or string type.
func Primitive(goType string) (Mapping, bool) {
	m, ok := primitives[goType]
	return m, ok
}

// ObjectMapping builds the mapping for a bridged struct type, whose raw ABI
// value is an opaque object reference and whose descriptor is derived from
// the namespace and struct name.
func ObjectMapping(name string, ns ast.Namespace) Mapping {
	qualified := name
	if !ns.IsRoot() {
		qualified = ns.Classpath() + "/" + name
	}
	return Mapping{
		Go:         name,
		Ref:        "ObjectRef",
		Descriptor: "L" + qualified + ";",
		Object:     true,
		TypeName:   name,
	}
}

// MethodDescriptor renders the host method descriptor for the given
// parameter mappings and optional return mapping. A method with no return
// value renders with an empty return segment: "(...)".
func MethodDescriptor(params []Mapping, ret *Mapping) string {
	d := "("
	for _, p := range params {
		d += p.Descriptor
	}
	d += ")"
	if ret != nil {
		d += ret.Descriptor
	}
	return d
}

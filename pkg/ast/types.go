// Package ast defines the model of an annotated bridge package: the structs,
// fields, and methods the parser extracts before resolution and expansion.
package ast

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"

	goast "go/ast"
)

// Namespace is a parsed dot-separated namespace path, e.g. "com.example.app".
// The zero value is the root namespace.
type Namespace struct {
	Segments []string
}

// ParseNamespace parses a dot-separated namespace path. The empty string is
// the root namespace. Segments must be non-empty identifiers; a dash anywhere
// in the path is rejected.
func ParseNamespace(s string) (Namespace, error) {
	if s == "" {
		return Namespace{}, nil
	}
	if strings.Contains(s, "-") {
		return Namespace{}, fmt.Errorf("namespace %q contains a dash; segments must be identifiers", s)
	}
	segments := strings.Split(s, ".")
	for _, seg := range segments {
		if !isIdentifier(seg) {
			return Namespace{}, fmt.Errorf("namespace %q: segment %q is not a valid identifier", s, seg)
		}
	}
	return Namespace{Segments: segments}, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if unicode.IsLetter(r) || r == '$' {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

// IsRoot reports whether the namespace is the root (empty) namespace.
func (n Namespace) IsRoot() bool {
	return len(n.Segments) == 0
}

// Classpath renders the namespace in slash-joined form, e.g. "com/example/app".
// The root namespace renders as "".
func (n Namespace) Classpath() string {
	return strings.Join(n.Segments, "/")
}

// Mangled renders the namespace in underscore-joined form, e.g.
// "com_example_app". The root namespace renders as "".
func (n Namespace) Mangled() string {
	return strings.Join(n.Segments, "_")
}

func (n Namespace) String() string {
	return strings.Join(n.Segments, ".")
}

// StructKind classifies a declared struct by whether it carries a namespace
// directive and whether it has associated methods.
type StructKind int

const (
	// Bridged structs have both a namespace directive and methods; they are
	// the only kind that proceeds to expansion.
	Bridged StructKind = iota
	// UnImpl structs have a namespace directive but no methods; warned and dropped.
	UnImpl
	// UnAttrib structs have methods but no namespace directive; hard error.
	UnAttrib
	// Bare structs have neither; warned and dropped.
	Bare
)

func (k StructKind) String() string {
	switch k {
	case Bridged:
		return "bridged"
	case UnImpl:
		return "unimpl"
	case UnAttrib:
		return "unattrib"
	case Bare:
		return "bare"
	}
	return fmt.Sprintf("StructKind(%d)", int(k))
}

// ClassifyStruct computes the struct kind from the two classification facts.
func ClassifyStruct(hasNamespace, hasMethods bool) StructKind {
	switch {
	case hasNamespace && hasMethods:
		return Bridged
	case hasNamespace:
		return UnImpl
	case hasMethods:
		return UnAttrib
	default:
		return Bare
	}
}

// MethodKind classifies a method by its calling-convention marker.
type MethodKind int

const (
	// Unexported methods carry no marker and pass through untouched.
	Unexported MethodKind = iota
	// Exported methods become native entry points callable from the host.
	Exported
	// Imported methods become call-out stubs invoking a host method.
	Imported
)

func (k MethodKind) String() string {
	switch k {
	case Exported:
		return "exported"
	case Imported:
		return "imported"
	}
	return "unexported"
}

// Default exception raised when a safe conversion fails in an exported method.
const (
	DefaultExceptionClass = "java/lang/RuntimeException"
	DefaultExceptionMsg   = "JNI conversion error!"
)

// CallType is the per-method choice between fallible ("safe") and infallible
// ("unchecked") value conversion.
type CallType struct {
	Unchecked bool
	// ExceptionClass and Message configure the exception raised on a failed
	// conversion in a safe exported method. Slash-separated class path.
	ExceptionClass string
	Message        string
}

// DefaultCallType is the safe call type with the default exception settings.
func DefaultCallType() CallType {
	return CallType{
		ExceptionClass: DefaultExceptionClass,
		Message:        DefaultExceptionMsg,
	}
}

// ParamShape records the syntactic shape of a parameter or result type.
// Only named types and pointers to named types have ABI mappings.
type ParamShape int

const (
	ShapeNamed ParamShape = iota
	ShapePointer
	ShapeOther
)

// Param is a method parameter or result.
type Param struct {
	Name  string
	Type  string // rendered type expression, e.g. "string", "*jni.Env", "User"
	Shape ParamShape
	Pos   token.Position
}

// Method is a function declaration associated with a struct, either through
// its receiver or through an explicit owner argument on the bridge marker.
type Method struct {
	Name  string
	Owner string // receiver base type, or the marker's owner argument

	HasRecv     bool
	RecvName    string // receiver identifier, e.g. "u"
	RecvPointer bool
	RecvGeneric bool // receiver type carries type arguments

	// Marker is the raw calling-convention marker: "export", "import" or "".
	Marker string
	// CallRaw is the raw payload of the //bridge:call directive, "" if absent.
	CallRaw string
	CallPos token.Position

	Params  []Param
	Results []Param

	EmptyBody bool
	Pos       token.Position
	NamePos   token.Position
	Decl      *goast.FuncDecl
}

// Field is a struct field declaration.
type Field struct {
	Name     string
	Type     string
	Instance bool // carries the //bridge:instance marker
	Pos      token.Position
}

// Struct is a declared struct type.
type Struct struct {
	Name         string
	HasNamespace bool
	Namespace    Namespace
	NamespaceRaw string
	TypeParams   int
	Fields       []Field
	Pos          token.Position
	Decl         *goast.GenDecl
}

// QualifiedName returns the slash-joined host class path of the struct,
// e.g. "com/example/app/User", or just "User" under the root namespace.
func (s *Struct) QualifiedName() string {
	if s.Namespace.IsRoot() {
		return s.Name
	}
	return s.Namespace.Classpath() + "/" + s.Name
}

// InstanceField returns the field carrying the //bridge:instance marker and
// the number of fields so marked.
func (s *Struct) InstanceField() (*Field, int) {
	var found *Field
	n := 0
	for i := range s.Fields {
		if s.Fields[i].Instance {
			if found == nil {
				found = &s.Fields[i]
			}
			n++
		}
	}
	return found, n
}

// StrayDirective records a bridge directive attached to an item that cannot
// carry it, e.g. //bridge:namespace on a function.
type StrayDirective struct {
	Directive string // directive name, e.g. "namespace"
	ItemKind  string // "func", "const", "var", "interface", ...
	Pos       token.Position
}

// SourceFile pairs a parsed file with its path, preserving the original
// syntax tree for verbatim passthrough during assembly.
type SourceFile struct {
	Path   string
	Syntax *goast.File
}

// Module is a fully parsed bridge package.
type Module struct {
	Name    string // package name
	Fset    *token.FileSet
	Files   []*SourceFile
	Structs map[string]*Struct
	Order   []string // struct names in declaration order
	Methods []*Method
	Stray   []StrayDirective
}

// MethodsOf returns the methods associated with the named struct, in
// declaration order.
func (m *Module) MethodsOf(name string) []*Method {
	var out []*Method
	for _, md := range m.Methods {
		if md.Owner == name {
			out = append(out, md)
		}
	}
	return out
}

// HasMethods reports whether any method is associated with the named struct.
func (m *Module) HasMethods(name string) bool {
	for _, md := range m.Methods {
		if md.Owner == name {
			return true
		}
	}
	return false
}

// Package derive synthesizes the per-struct support declarations every
// bridged struct needs: the descriptor constants and the conversion
// functions delegating to the //bridge:instance field.
package derive

import (
	"github.com/dave/jennifer/jen"

	"github.com/giovanniberti/hostbridge/pkg/ast"
	"github.com/giovanniberti/hostbridge/pkg/diag"
)

const jniPath = "github.com/giovanniberti/hostbridge/jni"

// instanceFieldType is the exact declared type the instance field must have.
const instanceFieldType = "jni.Object"

// Signature emits the descriptor-string constant for a struct:
// "L<classpath>/<Name>;". Hard error if the struct carries no namespace
// directive.
func Signature(s *ast.Struct, bag *diag.Bag) ([]jen.Code, bool) {
	if !s.HasNamespace {
		bag.Errorf(s.Pos, "struct %s needs a //bridge:namespace directive to derive its descriptor", s.Name)
		return nil, false
	}
	return []jen.Code{
		jen.Commentf("// %sSignature is the host descriptor of %s.", s.Name, s.QualifiedName()).Line().
			Const().Id(s.Name + "Signature").Op("=").Lit("L" + s.QualifiedName() + ";"),
		jen.Func().Params(jen.Id(s.Name)).Id("Signature").Params().String().Block(
			jen.Return(jen.Id(s.Name + "Signature")),
		),
	}, true
}

// ArraySignature emits the array-descriptor constant, delegating to the base
// descriptor: "[" + <base>.
func ArraySignature(s *ast.Struct, bag *diag.Bag) ([]jen.Code, bool) {
	if !s.HasNamespace {
		bag.Errorf(s.Pos, "struct %s needs a //bridge:namespace directive to derive its array descriptor", s.Name)
		return nil, false
	}
	return []jen.Code{
		jen.Const().Id(s.Name + "ArraySignature").Op("=").Lit("[").Op("+").Id(s.Name + "Signature"),
	}, true
}

// Conversion emits the value-conversion functions for a bridged struct,
// delegating to its single //bridge:instance field:
//
//	Try<Name>FromObject(e, ref) (<Name>, error)
//	<Name>FromObject(e, ref) <Name>          // panics on failure
//	(<Name>) Object() jni.ObjectRef
//
// plus a compile-time assertion pinning the field's declared type to
// jni.Object. Exactly one named field must carry the marker.
func Conversion(s *ast.Struct, bag *diag.Bag) ([]jen.Code, bool) {
	field, n := s.InstanceField()
	switch {
	case n == 0:
		bag.Errorf(s.Pos, "struct %s has no //bridge:instance field", s.Name)
		return nil, false
	case n > 1:
		bag.Errorf(s.Pos, "struct %s has %d //bridge:instance fields, want exactly one", s.Name, n)
		return nil, false
	case field.Name == "":
		bag.Errorf(field.Pos, "struct %s: the //bridge:instance field must be named", s.Name)
		return nil, false
	case field.Type != instanceFieldType:
		bag.Errorf(field.Pos, "struct %s: the //bridge:instance field must have type %s, found %s", s.Name, instanceFieldType, field.Type)
		return nil, false
	}

	tryName := "Try" + s.Name + "FromObject"
	mustName := s.Name + "FromObject"

	return []jen.Code{
		// Pins the instance field's declared type at compile time.
		jen.Var().Id("_").Qual(jniPath, "Object").Op("=").Id(s.Name).Values().Dot(field.Name),

		jen.Commentf("// %s converts a host object reference into a %s.", tryName, s.Name).Line().
			Func().Id(tryName).Params(
			jen.Id("e").Op("*").Qual(jniPath, "Env"),
			jen.Id("ref").Qual(jniPath, "ObjectRef"),
		).Params(jen.Id(s.Name), jen.Error()).Block(
			jen.If(jen.Id("ref").Op("==").Lit(0)).Block(
				jen.Return(jen.Id(s.Name).Values(), jen.Qual("errors", "New").Call(jen.Lit("null "+s.Name+" reference"))),
			),
			jen.Return(jen.Id(s.Name).Values(jen.Dict{
				jen.Id(field.Name): jen.Qual(jniPath, "Object").Values(jen.Dict{
					jen.Id("Env"): jen.Id("e"),
					jen.Id("Ref"): jen.Id("ref"),
				}),
			}), jen.Nil()),
		),

		jen.Func().Id(mustName).Params(
			jen.Id("e").Op("*").Qual(jniPath, "Env"),
			jen.Id("ref").Qual(jniPath, "ObjectRef"),
		).Id(s.Name).Block(
			jen.List(jen.Id("v"), jen.Err()).Op(":=").Id(tryName).Call(jen.Id("e"), jen.Id("ref")),
			jen.If(jen.Err().Op("!=").Nil()).Block(jen.Panic(jen.Err())),
			jen.Return(jen.Id("v")),
		),

		jen.Func().Params(jen.Id("v").Id(s.Name)).Id("Object").Params().Qual(jniPath, "ObjectRef").Block(
			jen.Return(jen.Id("v").Dot(field.Name).Dot("Ref")),
		),
	}, true
}

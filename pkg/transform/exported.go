package transform

import (
	"github.com/dave/jennifer/jen"

	"github.com/giovanniberti/hostbridge/pkg/abi"
	"github.com/giovanniberti/hostbridge/pkg/ast"
)

// generateExported synthesizes the native entry point for an exported
// method: a freestanding function under the mangled symbol name that
// converts every host-supplied argument, invokes the user's method, and
// converts the result back. In safe mode the conversion-and-call sequence
// runs inside a nested closure returning an error; on failure the wrapper
// raises a host exception and returns a zeroed value of the ABI return
// shape. In unchecked mode conversions are direct and a failure panics.
func (t *Transformer) generateExported(ctx *StructContext, m *ast.Method, ct ast.CallType) (jen.Code, bool) {
	sig, ok := t.buildSignature(ctx, m, ast.Exported, ct)
	if !ok {
		t.skip(m.Name, "signature cannot be mapped to the host ABI")
		return nil, false
	}

	host := sig.hostParams()
	reserved := make([]string, 0, len(host))
	for _, p := range host {
		reserved = append(reserved, p.name)
	}
	nm := newNames(m.Pos, reserved...)

	envName := nm.pick("env")
	selfRef := "this"
	selfType := "ObjectRef"
	if !m.HasRecv {
		selfRef = "cls"
		selfType = "ClassRef"
	}
	selfRef = nm.pick(selfRef)
	eLocal := nm.local("e")

	params := []jen.Code{
		jen.Id(envName).Qual(jniPath, "EnvRef"),
		jen.Id(selfRef).Qual(jniPath, selfType),
	}
	for _, p := range host {
		params = append(params, jen.Id(p.name).Add(refType(p.mapping)))
	}

	fn := jen.Comment("//export " + sig.symbol).Line().
		Comment("//go:noinline").Line().
		Func().Id(sig.symbol).Params(params...)
	if sig.ret != nil {
		fn.Add(refType(*sig.ret))
	}

	var body []jen.Code
	body = append(body, jen.Id(eLocal).Op(":=").Qual(jniPath, "Wrap").Call(jen.Id(envName)))

	// Converted-value locals, one per marshaled parameter, plus the
	// receiver. Names carry the position-derived suffix so they cannot
	// collide with user-written parameter names.
	selfLocal := nm.local("self")
	converted := make(map[string]string, len(host))
	for _, p := range host {
		converted[p.name] = nm.local(p.name)
	}

	// The call into the user's untouched method (or function, for
	// receiverless exports bound with an owner argument).
	callArgs := make([]jen.Code, 0, len(sig.params))
	for _, p := range sig.params {
		if p.env {
			callArgs = append(callArgs, jen.Id(eLocal))
			continue
		}
		callArgs = append(callArgs, jen.Id(converted[p.name]))
	}
	var call *jen.Statement
	if m.HasRecv {
		call = jen.Id(selfLocal).Dot(m.Name).Call(callArgs...)
	} else {
		call = jen.Id(m.Name).Call(callArgs...)
	}

	if ct.Unchecked {
		if m.HasRecv {
			body = append(body, jen.Id(selfLocal).Op(":=").Add(
				fromHost(eLocal, t.selfMapping(ctx), jen.Id(selfRef), false)))
		}
		for _, p := range host {
			body = append(body, jen.Id(converted[p.name]).Op(":=").Add(
				fromHost(eLocal, p.mapping, jen.Id(p.name), false)))
		}
		if sig.ret == nil {
			body = append(body, call)
		} else {
			body = append(body, jen.Return(toHost(eLocal, *sig.ret, call, false)))
		}
		return fn.Block(body...), true
	}

	// Safe mode: nested closure so every fallible conversion can
	// early-return, then one exception site in the wrapper.
	outerName := nm.local("outer")
	var inner []jen.Code
	errReturn := func() *jen.Statement {
		if sig.ret == nil {
			return jen.Return(jen.Err())
		}
		return jen.Return(jen.Lit(0), jen.Err())
	}
	if m.HasRecv {
		inner = append(inner,
			jen.List(jen.Id(selfLocal), jen.Err()).Op(":=").Add(
				fromHost(eLocal, t.selfMapping(ctx), jen.Id(selfRef), true)),
			jen.If(jen.Err().Op("!=").Nil()).Block(errReturn()),
		)
	}
	for _, p := range host {
		inner = append(inner,
			jen.List(jen.Id(converted[p.name]), jen.Err()).Op(":=").Add(
				fromHost(eLocal, p.mapping, jen.Id(p.name), true)),
			jen.If(jen.Err().Op("!=").Nil()).Block(errReturn()),
		)
	}
	switch {
	case sig.ret == nil:
		inner = append(inner, call, jen.Return(jen.Nil()))
	case toHostInfallible(*sig.ret):
		inner = append(inner, jen.Return(jen.List(toHost(eLocal, *sig.ret, call, true), jen.Nil())))
	default:
		inner = append(inner, jen.Return(toHost(eLocal, *sig.ret, call, true)))
	}

	outer := jen.Id(outerName).Op(":=").Func().Params()
	if sig.ret == nil {
		outer.Error()
	} else {
		outer.Params(refType(*sig.ret), jen.Error())
	}
	body = append(body, outer.Block(inner...))

	throw := jen.Id(eLocal).Dot("ThrowNew").Call(jen.Lit(ct.ExceptionClass), jen.Lit(ct.Message))
	if sig.ret == nil {
		errName := nm.local("err")
		body = append(body,
			jen.If(jen.Id(errName).Op(":=").Id(outerName).Call(), jen.Id(errName).Op("!=").Nil()).Block(throw),
		)
		return fn.Block(body...), true
	}

	retName := nm.local("ret")
	errName := nm.local("err")
	zeroName := nm.local("zero")
	body = append(body,
		jen.List(jen.Id(retName), jen.Id(errName)).Op(":=").Id(outerName).Call(),
		jen.If(jen.Id(errName).Op("!=").Nil()).Block(
			throw,
			// The host discards this value once the exception is
			// observed; the all-zero bit pattern is valid for every
			// ABI return type (null reference or numeric zero).
			jen.Var().Id(zeroName).Add(refType(*sig.ret)),
			jen.Return(jen.Id(zeroName)),
		),
		jen.Return(jen.Id(retName)),
	)
	return fn.Block(body...), true
}

// selfMapping is the object mapping of the enclosing struct, used to convert
// the instance handle into the receiver value.
func (t *Transformer) selfMapping(ctx *StructContext) abi.Mapping {
	return abi.ObjectMapping(ctx.Name, ctx.Namespace)
}

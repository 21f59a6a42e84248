package transform

import (
	"github.com/dave/jennifer/jen"

	"github.com/giovanniberti/hostbridge/pkg/abi"
	"github.com/giovanniberti/hostbridge/pkg/ast"
)

// generateImported synthesizes the call-out stub for an imported method: it
// keeps the user's declared Go signature and replaces the (required empty)
// body with a host invocation by class path, lower-camel method name, and
// computed descriptor. Safe mode propagates every conversion and call
// failure through the trailing error result; unchecked mode unwraps
// immediately, discarding host-side exception information.
func (t *Transformer) generateImported(ctx *StructContext, m *ast.Method, ct ast.CallType) (jen.Code, bool) {
	if !m.EmptyBody {
		t.bag.Errorf(m.Pos, "imported method %s must have an empty body", m.Name)
		t.skip(m.Name, "non-empty body")
		return nil, false
	}

	sig, ok := t.buildSignature(ctx, m, ast.Imported, ct)
	if !ok {
		t.skip(m.Name, "signature cannot be mapped to the host ABI")
		return nil, false
	}

	host := sig.hostParams()
	reserved := make([]string, 0, len(m.Params)+1)
	for _, p := range sig.params {
		reserved = append(reserved, p.name)
	}
	if m.RecvName != "" {
		reserved = append(reserved, m.RecvName)
	}
	nm := newNames(m.Pos, reserved...)

	hostName := abi.LowerCamel(m.Name)
	descriptor := sig.descriptor()
	classPath := ctx.ClassPath()

	// Environment handle: an explicit *jni.Env parameter wins; an instance
	// method without one reads the env attached to the object handle in
	// the instance field.
	envName, hasEnvParam := sig.envParam()
	recvName := m.RecvName
	if m.HasRecv && recvName == "" {
		recvName = nm.local("self")
	}
	if !hasEnvParam {
		if !m.HasRecv {
			t.bag.Errorf(m.Pos, "static imported method %s requires a *jni.Env parameter", m.Name)
			t.skip(m.Name, "no environment handle available")
			return nil, false
		}
		if ctx.Instance == nil {
			t.bag.Errorf(m.Pos, "imported method %s needs the //bridge:instance field of %s to reach the environment", m.Name, ctx.Name)
			t.skip(m.Name, "no environment handle available")
			return nil, false
		}
	}

	// Declared signature, reproduced as written minus the directives.
	fn := jen.Commentf("// %s calls %s.%s%s on the host runtime.", m.Name, classPath, hostName, descriptor).Line().Func()
	if m.HasRecv {
		recv := jen.Id(recvName)
		if m.RecvPointer {
			recv.Op("*")
		}
		fn.Params(recv.Id(ctx.Name))
	}
	fn.Id(m.Name)
	declParams := make([]jen.Code, 0, len(sig.params))
	for _, p := range sig.params {
		if p.env {
			pn := p.name
			if pn == "" {
				pn = nm.local("env")
				envName = pn
			}
			declParams = append(declParams, jen.Id(pn).Op("*").Qual(jniPath, "Env"))
			continue
		}
		declParams = append(declParams, jen.Id(p.name).Id(p.orig.Type))
	}
	fn.Params(declParams...)

	var results []jen.Code
	if sig.ret != nil {
		results = append(results, jen.Id(goTypeOf(*sig.ret)))
	}
	if sig.retErr {
		results = append(results, jen.Error())
	}
	switch len(results) {
	case 1:
		fn.Add(results[0])
	default:
		if len(results) > 1 {
			fn.Params(results...)
		}
	}

	var body []jen.Code
	eLocal := envName
	if !hasEnvParam {
		eLocal = nm.local("e")
		body = append(body, jen.Id(eLocal).Op(":=").Id(recvName).Dot(ctx.Instance.Name).Dot("Env"))
	}

	errReturn := func() *jen.Statement {
		if sig.ret == nil {
			return jen.Return(jen.Err())
		}
		return jen.Return(zeroValue(*sig.ret), jen.Err())
	}

	// Convert arguments to raw host values.
	hostArgs := make([]jen.Code, 0, len(host))
	for _, p := range host {
		if ct.Unchecked || toHostInfallible(p.mapping) {
			local := nm.local(p.name)
			body = append(body, jen.Id(local).Op(":=").Add(
				toHost(eLocal, p.mapping, jen.Id(p.name), false)))
			hostArgs = append(hostArgs, jen.Id(local))
			continue
		}
		local := nm.local(p.name)
		body = append(body,
			jen.List(jen.Id(local), jen.Err()).Op(":=").Add(
				toHost(eLocal, p.mapping, jen.Id(p.name), true)),
			jen.If(jen.Err().Op("!=").Nil()).Block(errReturn()),
		)
		hostArgs = append(hostArgs, jen.Id(local))
	}

	// The host invocation itself.
	var call *jen.Statement
	callArgs := append([]jen.Code{}, jen.Lit(classPath), jen.Lit(hostName), jen.Lit(descriptor))
	callArgs = append(callArgs, hostArgs...)
	if m.HasRecv {
		obj := jen.Id(recvName).Dot(ctx.Instance.Name).Dot("Ref")
		call = jen.Id(eLocal).Dot("CallMethod").Call(append([]jen.Code{obj}, callArgs...)...)
	} else {
		call = jen.Id(eLocal).Dot("CallStaticMethod").Call(callArgs...)
	}

	retLocal := nm.local("ret")
	if ct.Unchecked {
		if sig.ret == nil {
			body = append(body, jen.If(
				jen.List(jen.Id("_"), jen.Err()).Op(":=").Add(call),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Panic(jen.Err())))
			return fn.Block(body...), true
		}
		body = append(body,
			jen.List(jen.Id(retLocal), jen.Err()).Op(":=").Add(call),
			jen.If(jen.Err().Op("!=").Nil()).Block(jen.Panic(jen.Err())),
		)
		if sig.ret.Object {
			body = append(body, jen.Return(
				jen.Id(sig.ret.TypeName+"FromObject").Call(
					jen.Id(eLocal),
					jen.Qual(jniPath, "ObjectResult").Call(jen.Id(eLocal), jen.Id(retLocal)))))
			return fn.Block(body...), true
		}
		body = append(body, jen.Return(fromResult(eLocal, *sig.ret, jen.Id(retLocal), false)))
		return fn.Block(body...), true
	}

	// Safe mode.
	if sig.ret == nil {
		body = append(body,
			jen.If(
				jen.List(jen.Id("_"), jen.Err()).Op(":=").Add(call),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Return(jen.Err())),
			jen.Return(jen.Nil()),
		)
		return fn.Block(body...), true
	}

	body = append(body,
		jen.List(jen.Id(retLocal), jen.Err()).Op(":=").Add(call),
		jen.If(jen.Err().Op("!=").Nil()).Block(errReturn()),
	)
	if sig.ret.Object {
		refLocal := nm.local("ref")
		body = append(body,
			jen.List(jen.Id(refLocal), jen.Err()).Op(":=").Qual(jniPath, "TryObjectResult").Call(jen.Id(eLocal), jen.Id(retLocal)),
			jen.If(jen.Err().Op("!=").Nil()).Block(errReturn()),
			jen.Return(jen.Id("Try"+sig.ret.TypeName+"FromObject").Call(jen.Id(eLocal), jen.Id(refLocal))),
		)
		return fn.Block(body...), true
	}
	body = append(body, jen.Return(fromResult(eLocal, *sig.ret, jen.Id(retLocal), true)))
	return fn.Block(body...), true
}

// goTypeOf renders the declared Go type of a return mapping.
func goTypeOf(m abi.Mapping) string {
	if m.Object {
		return m.TypeName
	}
	return m.Go
}

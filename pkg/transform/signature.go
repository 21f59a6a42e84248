package transform

import (
	"fmt"
	"strings"

	"github.com/giovanniberti/hostbridge/pkg/abi"
	"github.com/giovanniberti/hostbridge/pkg/ast"
)

// envType is the threaded environment parameter type; it is never marshaled.
const envType = "*jni.Env"

// sigParam is one declared parameter after signature rewriting.
type sigParam struct {
	name    string // emitted parameter name
	orig    ast.Param
	mapping abi.Mapping
	env     bool // true for *jni.Env parameters, threaded rather than marshaled
}

// methodSig is a method signature rewritten to its host-ABI shape.
type methodSig struct {
	symbol string // mangled exported symbol (exported methods only)
	params []sigParam
	ret    *abi.Mapping // nil for no return value
	// retErr is true when the declared results end with error (imported
	// safe methods).
	retErr bool
}

// buildSignature validates and rewrites a method signature. Blocking
// problems (unmappable types, illegal return shapes) mark the method as
// skipped; the underscore naming violation is diagnosed but expansion
// continues so later errors still surface.
func (t *Transformer) buildSignature(ctx *StructContext, m *ast.Method, kind ast.MethodKind, ct ast.CallType) (*methodSig, bool) {
	sig := &methodSig{}
	ok := true

	if strings.Contains(m.Name, "_") {
		t.bag.Errorf(m.NamePos,
			"method name %q must not contain an underscore; '_' is reserved as the symbol mangling separator", m.Name)
	}
	sig.symbol = abi.ExportedSymbol(ctx.Namespace, ctx.Name, m.Name)

	for i, p := range m.Params {
		if p.Type == envType {
			sig.params = append(sig.params, sigParam{name: p.Name, orig: p, env: true})
			continue
		}
		mapping, found := t.mappingFor(p.Type)
		if !found {
			t.bag.Errorf(p.Pos, "method %s: no host ABI mapping for parameter type %q", m.Name, p.Type)
			ok = false
			continue
		}
		name := p.Name
		if name == "" || name == "_" {
			name = sprintfName(i)
		}
		sig.params = append(sig.params, sigParam{name: name, orig: p, mapping: mapping})
	}

	results := m.Results
	if kind == ast.Imported && !ct.Unchecked {
		// Safe imported methods propagate host failures as a trailing
		// error value; it is not part of the host signature.
		if len(results) == 0 || results[len(results)-1].Type != "error" {
			t.bag.Errorf(m.Pos, "safe imported method %s must declare a trailing error result", m.Name)
			ok = false
		} else {
			results = results[:len(results)-1]
			sig.retErr = true
		}
	}

	if len(results) > 1 {
		t.bag.Errorf(m.Pos, "method %s: at most one value may be returned across the host boundary", m.Name)
		ok = false
	} else if len(results) == 1 {
		r := results[0]
		if r.Shape == ast.ShapeOther {
			t.bag.Errorf(r.Pos, "method %s: only type or type paths are permitted in return position", m.Name)
			ok = false
		} else {
			mapping, found := t.mappingFor(strings.TrimPrefix(r.Type, "*"))
			if !found {
				t.bag.Errorf(r.Pos, "method %s: no host ABI mapping for return type %q", m.Name, r.Type)
				ok = false
			} else {
				sig.ret = &mapping
			}
		}
	}

	return sig, ok
}

// hostParams returns the parameters that participate in marshaling and the
// host method descriptor, i.e. everything except threaded env parameters.
func (s *methodSig) hostParams() []sigParam {
	out := make([]sigParam, 0, len(s.params))
	for _, p := range s.params {
		if !p.env {
			out = append(out, p)
		}
	}
	return out
}

// envParam returns the name of the explicit *jni.Env parameter, if any.
func (s *methodSig) envParam() (string, bool) {
	for _, p := range s.params {
		if p.env {
			return p.name, true
		}
	}
	return "", false
}

// descriptor renders the host method descriptor for this signature.
func (s *methodSig) descriptor() string {
	params := s.hostParams()
	mappings := make([]abi.Mapping, len(params))
	for i, p := range params {
		mappings[i] = p.mapping
	}
	return abi.MethodDescriptor(mappings, s.ret)
}

func sprintfName(i int) string {
	return fmt.Sprintf("arg%d", i)
}

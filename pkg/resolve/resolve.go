// Package resolve validates the parsed bridge module and builds the
// namespace map: one entry per struct that both carries a namespace
// directive and has associated methods. Structural errors are accumulated
// across the whole module before aborting, so one run surfaces every
// independent violation.
package resolve

import (
	"github.com/tliron/commonlog"

	"github.com/giovanniberti/hostbridge/pkg/ast"
	"github.com/giovanniberti/hostbridge/pkg/diag"
)

var log = commonlog.GetLogger("hostbridge.resolve")

// Resolve classifies every struct, validates directive placement, and
// returns the namespace map. Warnings and errors go into bag; the returned
// error is bag.Err().
func Resolve(mod *ast.Module, bag *diag.Bag) (map[string]ast.Namespace, error) {
	for _, stray := range mod.Stray {
		bag.Errorf(stray.Pos, "//bridge:%s is only valid on struct declarations, found on %s", stray.Directive, stray.ItemKind)
	}

	nsMap := make(map[string]ast.Namespace)

	for _, name := range mod.Order {
		s := mod.Structs[name]
		kind := ast.ClassifyStruct(s.HasNamespace, mod.HasMethods(name))
		switch kind {
		case ast.Bridged:
			if s.TypeParams > 0 {
				bag.Errorf(s.Pos, "struct %s: generic structs cannot be bridged", name)
				continue
			}
			ns, err := ast.ParseNamespace(s.NamespaceRaw)
			if err != nil {
				bag.Errorf(s.Pos, "struct %s: %v", name, err)
				continue
			}
			s.Namespace = ns
			nsMap[name] = ns
			log.Debugf("resolved %s -> %q", name, ns.String())
		case ast.UnImpl:
			bag.Warnf(s.Pos, "struct %s has a namespace but no methods; skipping", name)
		case ast.UnAttrib:
			bag.Errorf(s.Pos, "struct %s has methods but no //bridge:namespace directive", name)
		case ast.Bare:
			bag.Warnf(s.Pos, "struct %s has neither a namespace nor methods; skipping", name)
		}
	}

	for _, m := range mod.Methods {
		if m.Marker == "" {
			continue
		}
		if m.Owner == "" {
			bag.ErrorfNote(m.Pos,
				"write //bridge:"+m.Marker+" <StructName> to bind a receiverless function",
				"//bridge:%s on function %s without a receiver requires an owner struct name", m.Marker, m.Name)
			continue
		}
		if m.RecvGeneric {
			// Generic receivers are skipped conservatively: the method
			// set of an instantiated type cannot be matched by name
			// alone without false positives.
			continue
		}
		if _, ok := mod.Structs[m.Owner]; !ok {
			bag.Errorf(m.Pos, "method %s: owning struct %s is not declared in this package", m.Name, m.Owner)
		}
	}

	if err := bag.Err(); err != nil {
		return nil, err
	}
	return nsMap, nil
}

// Package abi encodes the host runtime's binding contracts: exported symbol
// mangling, method descriptor strings, and the mapping between Go types and
// their raw host-ABI value types.
package abi

import (
	"strings"

	"github.com/giovanniberti/hostbridge/pkg/ast"
)

// SymbolPrefix is the fixed leading segment of every exported symbol the
// dynamic loader resolves.
const SymbolPrefix = "Host"

// LowerCamel converts a Go method name to the host-side camelCase method
// name. "GetAge" -> "getAge", "getName" -> "getName".
func LowerCamel(name string) string {
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

// ExportedSymbol computes the mangled exported symbol name for a method:
// Host_<namespace underscored>_<StructName>_<methodName>. The namespace
// segment and its trailing underscore are absent under the root namespace.
func ExportedSymbol(ns ast.Namespace, structName, methodName string) string {
	parts := []string{SymbolPrefix}
	if !ns.IsRoot() {
		parts = append(parts, ns.Mangled())
	}
	parts = append(parts, structName, LowerCamel(methodName))
	return strings.Join(parts, "_")
}

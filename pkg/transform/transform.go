// Package transform is the expansion core: it rewrites an annotated bridge
// module into its emitted form, synthesizing native entry points for
// exported methods, call-out stubs for imported methods, and derive output
// for every bridged struct, while passing everything else through verbatim.
package transform

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/giovanniberti/hostbridge/pkg/abi"
	"github.com/giovanniberti/hostbridge/pkg/ast"
	"github.com/giovanniberti/hostbridge/pkg/diag"
)

var log = commonlog.GetLogger("hostbridge.transform")

// jniPath is the import path of the runtime surface package generated code
// links against.
const jniPath = "github.com/giovanniberti/hostbridge/jni"

// Options controls code generation behavior.
type Options struct {
	// SkipValidation disables the in-memory Go check of the emitted file.
	SkipValidation bool
	// ExceptionClass and ExceptionMsg override the default exception raised
	// when a safe conversion fails and the method carries no per-method
	// override. Slash-separated class path.
	ExceptionClass string
	ExceptionMsg   string
}

// SkippedMethod records a method left unexpanded because of a diagnostic.
type SkippedMethod struct {
	Name   string
	Reason string
}

// Result carries the emitted source and any non-fatal findings.
type Result struct {
	Code     string
	Warnings []string
	Skipped  []SkippedMethod
}

// StructContext is the shared, read-only context threaded through every
// method transformation of one bridged struct.
type StructContext struct {
	Name      string
	Namespace ast.Namespace
	Struct    *ast.Struct
	// Instance is the //bridge:instance field, nil if absent or invalid.
	Instance *ast.Field
}

// ClassPath returns the slash-joined host class path of the struct.
func (c *StructContext) ClassPath() string {
	if c.Namespace.IsRoot() {
		return c.Name
	}
	return c.Namespace.Classpath() + "/" + c.Name
}

// Transformer expands one module. It is single-use: construct, call
// Generate once, read the result.
type Transformer struct {
	mod  *ast.Module
	ns   map[string]ast.Namespace
	opts Options
	bag  *diag.Bag

	warnings []string
	skipped  []SkippedMethod
	contexts map[string]*StructContext
}

// New builds a Transformer over a resolved module.
func New(mod *ast.Module, nsMap map[string]ast.Namespace, opts Options, bag *diag.Bag) *Transformer {
	if opts.ExceptionClass == "" {
		opts.ExceptionClass = ast.DefaultExceptionClass
	}
	if opts.ExceptionMsg == "" {
		opts.ExceptionMsg = ast.DefaultExceptionMsg
	}
	return &Transformer{
		mod:      mod,
		ns:       nsMap,
		opts:     opts,
		bag:      bag,
		contexts: map[string]*StructContext{},
	}
}

// contextFor returns the struct context for a bridged struct name, building
// it on first use.
func (t *Transformer) contextFor(name string) (*StructContext, bool) {
	if ctx, ok := t.contexts[name]; ok {
		return ctx, true
	}
	ns, ok := t.ns[name]
	if !ok {
		return nil, false
	}
	s := t.mod.Structs[name]
	ctx := &StructContext{Name: name, Namespace: ns, Struct: s}
	if f, n := s.InstanceField(); n == 1 && f.Name != "" {
		ctx.Instance = f
	}
	t.contexts[name] = ctx
	return ctx, true
}

// mappingFor resolves a Go type to its ABI mapping: primitives from the
// fixed table, bridged struct names through the namespace map.
func (t *Transformer) mappingFor(goType string) (abi.Mapping, bool) {
	if m, ok := abi.Primitive(goType); ok {
		return m, true
	}
	if ns, ok := t.ns[goType]; ok {
		return abi.ObjectMapping(goType, ns), true
	}
	return abi.Mapping{}, false
}

func (t *Transformer) warnf(format string, args ...any) {
	t.warnings = append(t.warnings, fmt.Sprintf(format, args...))
}

func (t *Transformer) skip(name, reason string) {
	t.skipped = append(t.skipped, SkippedMethod{Name: name, Reason: reason})
}

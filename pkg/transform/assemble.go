package transform

import (
	"bytes"
	"fmt"
	"go/format"
	"go/printer"
	"go/token"
	"strconv"
	"strings"

	goast "go/ast"

	"github.com/dave/jennifer/jen"

	"github.com/giovanniberti/hostbridge/pkg/ast"
	"github.com/giovanniberti/hostbridge/pkg/derive"
)

// Generate walks the full module and assembles the emitted source file:
// unannotated declarations pass through verbatim, exported methods keep
// their original body and gain a native entry point, imported methods are
// replaced by their synthesized call-out stub, and every bridged struct
// gets its derive output. A method whose owning struct cannot be resolved
// is diagnosed and left unexpanded; the rest of the module still assembles.
func (t *Transformer) Generate() *Result {
	methodOf := make(map[*goast.FuncDecl]*ast.Method, len(t.mod.Methods))
	for _, m := range t.mod.Methods {
		methodOf[m.Decl] = m
	}

	type importSpec struct{ alias, path string }
	var imports []importSpec
	seen := map[string]bool{}
	addImport := func(alias, path string) {
		if seen[path] {
			return
		}
		seen[path] = true
		imports = append(imports, importSpec{alias, path})
	}

	defaults := ast.DefaultCallType()
	defaults.ExceptionClass = t.opts.ExceptionClass
	defaults.Message = t.opts.ExceptionMsg

	var chunks []string
	var needC, needJNI, needErrors bool
	expanded := 0

	for _, sf := range t.mod.Files {
		for _, decl := range sf.Syntax.Decls {
			switch d := decl.(type) {
			case *goast.GenDecl:
				if d.Tok == token.IMPORT {
					for _, spec := range d.Specs {
						is, ok := spec.(*goast.ImportSpec)
						if !ok {
							continue
						}
						path, err := strconv.Unquote(is.Path.Value)
						if err != nil {
							continue
						}
						alias := ""
						if is.Name != nil {
							alias = is.Name.Name
						}
						addImport(alias, path)
					}
					continue
				}
				chunks = append(chunks, t.printDecl(sf, d, d.Doc))

			case *goast.FuncDecl:
				m := methodOf[d]
				if m == nil || Classify(m.Marker) == ast.Unexported {
					chunks = append(chunks, t.printDecl(sf, d, d.Doc))
					continue
				}
				if m.RecvGeneric {
					// Mirrors the resolver: marker methods on generic
					// receivers are never expanded.
					t.bag.Warnf(m.Pos, "method %s has a generic receiver; left unexpanded", m.Name)
					chunks = append(chunks, t.printDecl(sf, d, d.Doc))
					continue
				}
				ctx, ok := t.contextFor(m.Owner)
				if !ok {
					t.bag.Errorf(m.Pos, "cannot resolve owning struct %s of method %s; left unexpanded", m.Owner, m.Name)
					t.skip(m.Name, "owning struct unresolved")
					chunks = append(chunks, t.printDecl(sf, d, d.Doc))
					continue
				}
				ct := parseCallType(m.CallRaw, defaults, m.CallPos, t.bag)
				switch Classify(m.Marker) {
				case ast.Exported:
					// The user's method is the untouched inner
					// function; it stays in the output and the
					// entry point calls it.
					chunks = append(chunks, t.printDecl(sf, d, d.Doc))
					if code, ok := t.generateExported(ctx, m, ct); ok {
						needC, needJNI = true, true
						expanded++
						chunks = append(chunks, render(code))
					}
				case ast.Imported:
					code, ok := t.generateImported(ctx, m, ct)
					if !ok {
						chunks = append(chunks, t.printDecl(sf, d, d.Doc))
						continue
					}
					needJNI = true
					expanded++
					chunks = append(chunks, render(code))
				}

			default:
				chunks = append(chunks, t.printDecl(sf, decl, nil))
			}
		}
	}

	for _, name := range t.mod.Order {
		if _, ok := t.contextFor(name); !ok {
			continue
		}
		s := t.mod.Structs[name]
		var codes []jen.Code
		if cs, ok := derive.Signature(s, t.bag); ok {
			codes = append(codes, cs...)
		}
		if cs, ok := derive.ArraySignature(s, t.bag); ok {
			codes = append(codes, cs...)
		}
		if cs, ok := derive.Conversion(s, t.bag); ok {
			needErrors = true
			codes = append(codes, cs...)
		}
		if len(codes) > 0 {
			needJNI = true
			for _, c := range codes {
				chunks = append(chunks, render(c))
			}
		}
	}

	if needJNI {
		addImport("", jniPath)
	}
	if needErrors {
		addImport("", "errors")
	}

	var buf bytes.Buffer
	buf.WriteString("// Code generated by hostbridge. DO NOT EDIT.\n")
	buf.WriteString("//\n")
	fmt.Fprintf(&buf, "// Native bridge bindings for package %s.\n", t.mod.Name)
	buf.WriteString("//nolint:revive,stylecheck // synthesized symbols follow the host loader's naming scheme\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", t.mod.Name)

	if len(imports) > 0 {
		buf.WriteString("import (\n")
		for _, is := range imports {
			if is.alias != "" {
				fmt.Fprintf(&buf, "\t%s %q\n", is.alias, is.path)
			} else {
				fmt.Fprintf(&buf, "\t%q\n", is.path)
			}
		}
		buf.WriteString(")\n\n")
	}
	if needC {
		// Exported entry points need cgo so the loader can resolve the
		// //export symbols.
		buf.WriteString("import \"C\"\n\n")
	}

	for _, c := range chunks {
		buf.WriteString(c)
		buf.WriteString("\n\n")
	}

	result := &Result{Skipped: t.skipped}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		t.bag.Errorf(token.Position{}, "internal: emitted source does not parse: %v", err)
		result.Code = buf.String()
		result.Warnings = t.warnings
		return result
	}
	result.Code = string(formatted)
	log.Debugf("assembled %d chunks, %d methods expanded", len(chunks), expanded)

	if !t.opts.SkipValidation && !t.bag.HasErrors() {
		for _, ve := range newValidator("bridge_gen.go").validate(result.Code) {
			t.warnf("Go validation: %s", ve)
		}
	}
	result.Warnings = t.warnings
	return result
}

func render(code jen.Code) string {
	return fmt.Sprintf("%#v", code)
}

// printDecl prints a declaration verbatim with bridge directives and build
// constraints removed. The doc comment is emitted from the filtered group,
// never by the printer: go/printer widens a commented node's range to cover
// its doc group and would re-print it unfiltered from the file comment list.
// Interior comments (struct fields, inline) are handed to the printer as
// filtered copies for the same reason.
func (t *Transformer) printDecl(sf *ast.SourceFile, node goast.Node, doc *goast.CommentGroup) string {
	var buf bytes.Buffer
	if doc != nil {
		for _, c := range doc.List {
			if isDirective(c.Text) {
				continue
			}
			buf.WriteString(c.Text)
			buf.WriteString("\n")
		}
	}

	restore := detachDoc(node)
	// Non-nil even when empty: a nil comment list makes go/printer fall
	// back to the node's own attached comments, unfiltered.
	comments := []*goast.CommentGroup{}
	for _, cg := range sf.Syntax.Comments {
		if cg.Pos() < node.Pos() || cg.End() > node.End() {
			continue
		}
		if fg := stripDirectives(cg); fg != nil {
			comments = append(comments, fg)
		}
	}
	err := printer.Fprint(&buf, t.mod.Fset, &printer.CommentedNode{
		Node:     node,
		Comments: comments,
	})
	restore()
	if err != nil {
		t.bag.Errorf(t.mod.Fset.Position(node.Pos()), "printing declaration: %v", err)
	}
	return buf.String()
}

func isDirective(text string) bool {
	return strings.HasPrefix(text, "//bridge:") ||
		strings.HasPrefix(text, "//go:build") ||
		strings.HasPrefix(text, "// +build")
}

// stripDirectives returns cg with directive lines removed, or nil when
// nothing remains.
func stripDirectives(cg *goast.CommentGroup) *goast.CommentGroup {
	kept := make([]*goast.Comment, 0, len(cg.List))
	for _, c := range cg.List {
		if isDirective(c.Text) {
			continue
		}
		kept = append(kept, c)
	}
	switch len(kept) {
	case 0:
		return nil
	case len(cg.List):
		return cg
	}
	return &goast.CommentGroup{List: kept}
}

// detachDoc clears the declaration's doc group for the duration of one
// print, returning the undo function. printDecl emits the filtered doc
// itself.
func detachDoc(node goast.Node) func() {
	switch d := node.(type) {
	case *goast.GenDecl:
		saved := d.Doc
		d.Doc = nil
		return func() { d.Doc = saved }
	case *goast.FuncDecl:
		saved := d.Doc
		d.Doc = nil
		return func() { d.Doc = saved }
	}
	return func() {}
}

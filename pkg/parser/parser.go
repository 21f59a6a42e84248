// Package parser reads an annotated Go package into the bridge model.
// Annotations are directive comments: //bridge:namespace on struct types,
// //bridge:export, //bridge:import and //bridge:call on methods, and
// //bridge:instance on struct fields. Input files are expected to carry the
// "hostbridge" build constraint so the ordinary build never compiles them.
package parser

import (
	"errors"
	"fmt"
	"go/token"
	"go/types"
	"sort"
	"strings"

	goast "go/ast"
	goparser "go/parser"

	"golang.org/x/tools/go/packages"

	"github.com/giovanniberti/hostbridge/pkg/ast"
)

// BuildTag is the build constraint expected on annotated input files.
const BuildTag = "hostbridge"

// DirectivePrefix introduces every bridge annotation.
const DirectivePrefix = "//bridge:"

// Load reads the annotated package in dir using the go/packages driver, so
// the input is resolved the same way the ordinary build would resolve it.
func Load(dir string) (*ast.Module, error) {
	cfg := &packages.Config{
		Mode:       packages.NeedName | packages.NeedFiles | packages.NeedSyntax,
		Dir:        dir,
		BuildFlags: []string{"-tags", BuildTag},
	}

	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", dir, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no package found in %s", dir)
	}

	pkg := pkgs[0]
	if err := firstParseError(pkg.Errors); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", dir, err)
	}
	if len(pkg.Syntax) == 0 {
		return nil, fmt.Errorf("package %s has no files with the %q build tag", dir, BuildTag)
	}

	files := make(map[string]*goast.File, len(pkg.Syntax))
	for _, f := range pkg.Syntax {
		files[pkg.Fset.Position(f.Pos()).Filename] = f
	}
	return buildModule(pkg.Fset, pkg.Name, files), nil
}

// firstParseError returns the first syntax failure in errs. Type and list
// errors are expected in annotated input: imported methods are declared
// without bodies by contract.
func firstParseError(errs []packages.Error) error {
	for _, e := range errs {
		if e.Kind == packages.ParseError {
			return errors.New(e.Msg)
		}
	}
	return nil
}

// ParseDir parses every Go file in dir without consulting the build system.
// Used when the input is not a resolvable package (tests, vendored trees).
func ParseDir(dir string) (*ast.Module, error) {
	fset := token.NewFileSet()
	pkgs, err := goparser.ParseDir(fset, dir, nil, goparser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", dir, err)
	}
	if len(pkgs) != 1 {
		return nil, fmt.Errorf("%s: expected exactly one package, found %d", dir, len(pkgs))
	}
	for name, pkg := range pkgs {
		return buildModule(fset, name, pkg.Files), nil
	}
	return nil, fmt.Errorf("no package in %s", dir)
}

// ParseSource parses a single in-memory file. Test entry point.
func ParseSource(filename, src string) (*ast.Module, error) {
	fset := token.NewFileSet()
	f, err := goparser.ParseFile(fset, filename, src, goparser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	return buildModule(fset, f.Name.Name, map[string]*goast.File{filename: f}), nil
}

func buildModule(fset *token.FileSet, name string, files map[string]*goast.File) *ast.Module {
	mod := &ast.Module{
		Name:    name,
		Fset:    fset,
		Structs: map[string]*ast.Struct{},
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		f := files[path]
		mod.Files = append(mod.Files, &ast.SourceFile{Path: path, Syntax: f})
		for _, decl := range f.Decls {
			switch d := decl.(type) {
			case *goast.GenDecl:
				collectGenDecl(mod, fset, d)
			case *goast.FuncDecl:
				collectFuncDecl(mod, fset, d)
			}
		}
	}
	return mod
}

func collectGenDecl(mod *ast.Module, fset *token.FileSet, d *goast.GenDecl) {
	if d.Tok != token.TYPE {
		if _, ok := lookupDirective(d.Doc, "namespace"); ok {
			mod.Stray = append(mod.Stray, ast.StrayDirective{
				Directive: "namespace",
				ItemKind:  strings.ToLower(d.Tok.String()),
				Pos:       fset.Position(d.Pos()),
			})
		}
		return
	}

	for _, spec := range d.Specs {
		ts, ok := spec.(*goast.TypeSpec)
		if !ok {
			continue
		}
		doc := ts.Doc
		if doc == nil && len(d.Specs) == 1 {
			doc = d.Doc
		}
		st, isStruct := ts.Type.(*goast.StructType)
		raw, hasNS := lookupDirective(doc, "namespace")
		if !isStruct {
			if hasNS {
				mod.Stray = append(mod.Stray, ast.StrayDirective{
					Directive: "namespace",
					ItemKind:  typeSpecKind(ts),
					Pos:       fset.Position(ts.Pos()),
				})
			}
			continue
		}

		s := &ast.Struct{
			Name:         ts.Name.Name,
			HasNamespace: hasNS,
			NamespaceRaw: raw,
			Pos:          fset.Position(ts.Pos()),
			Decl:         d,
		}
		if ts.TypeParams != nil {
			s.TypeParams = len(ts.TypeParams.List)
		}
		if hasNS {
			ns, err := ast.ParseNamespace(raw)
			if err == nil {
				s.Namespace = ns
			}
			// Parse errors surface during resolution, where the
			// diagnostic bag is available.
		}
		for _, fl := range st.Fields.List {
			ftype := types.ExprString(fl.Type)
			_, instance := lookupDirective(fl.Doc, "instance")
			if !instance {
				_, instance = lookupDirective(fl.Comment, "instance")
			}
			if len(fl.Names) == 0 {
				s.Fields = append(s.Fields, ast.Field{
					Type:     ftype,
					Instance: instance,
					Pos:      fset.Position(fl.Pos()),
				})
				continue
			}
			for _, n := range fl.Names {
				s.Fields = append(s.Fields, ast.Field{
					Name:     n.Name,
					Type:     ftype,
					Instance: instance,
					Pos:      fset.Position(n.Pos()),
				})
			}
		}
		mod.Structs[s.Name] = s
		mod.Order = append(mod.Order, s.Name)
	}
}

func collectFuncDecl(mod *ast.Module, fset *token.FileSet, d *goast.FuncDecl) {
	if _, ok := lookupDirective(d.Doc, "namespace"); ok {
		mod.Stray = append(mod.Stray, ast.StrayDirective{
			Directive: "namespace",
			ItemKind:  "func",
			Pos:       fset.Position(d.Pos()),
		})
	}

	marker, owner := methodMarker(d.Doc)

	m := &ast.Method{
		Name:    d.Name.Name,
		Marker:  marker,
		Pos:     fset.Position(d.Pos()),
		NamePos: fset.Position(d.Name.Pos()),
		Decl:    d,
	}

	if raw, ok := lookupDirective(d.Doc, "call"); ok {
		m.CallRaw = raw
		m.CallPos = fset.Position(d.Pos())
	}

	if d.Recv != nil && len(d.Recv.List) > 0 {
		recv := d.Recv.List[0]
		m.HasRecv = true
		if len(recv.Names) > 0 {
			m.RecvName = recv.Names[0].Name
		}
		base, ptr, generic := receiverBase(recv.Type)
		m.Owner = base
		m.RecvPointer = ptr
		m.RecvGeneric = generic
	} else {
		if marker == "" {
			return // plain function, passes through verbatim
		}
		m.Owner = owner
	}

	if d.Type.Params != nil {
		for _, fl := range d.Type.Params.List {
			shape := exprShape(fl.Type)
			ftype := types.ExprString(fl.Type)
			if len(fl.Names) == 0 {
				m.Params = append(m.Params, ast.Param{Type: ftype, Shape: shape, Pos: fset.Position(fl.Pos())})
				continue
			}
			for _, n := range fl.Names {
				m.Params = append(m.Params, ast.Param{Name: n.Name, Type: ftype, Shape: shape, Pos: fset.Position(n.Pos())})
			}
		}
	}
	if d.Type.Results != nil {
		for _, fl := range d.Type.Results.List {
			shape := exprShape(fl.Type)
			ftype := types.ExprString(fl.Type)
			if len(fl.Names) == 0 {
				m.Results = append(m.Results, ast.Param{Type: ftype, Shape: shape, Pos: fset.Position(fl.Pos())})
				continue
			}
			for _, n := range fl.Names {
				m.Results = append(m.Results, ast.Param{Name: n.Name, Type: ftype, Shape: shape, Pos: fset.Position(n.Pos())})
			}
		}
	}

	m.EmptyBody = d.Body == nil || len(d.Body.List) == 0
	mod.Methods = append(mod.Methods, m)
}

// methodMarker extracts the calling-convention marker ("export" or "import")
// and its optional owner argument from a doc comment.
func methodMarker(doc *goast.CommentGroup) (marker, owner string) {
	if raw, ok := lookupDirective(doc, "export"); ok {
		return "export", strings.TrimSpace(raw)
	}
	if raw, ok := lookupDirective(doc, "import"); ok {
		return "import", strings.TrimSpace(raw)
	}
	return "", ""
}

// lookupDirective finds "//bridge:<name>" in a comment group and returns the
// text following the directive name.
func lookupDirective(doc *goast.CommentGroup, name string) (string, bool) {
	if doc == nil {
		return "", false
	}
	for _, c := range doc.List {
		text := c.Text
		if !strings.HasPrefix(text, DirectivePrefix) {
			continue
		}
		rest := text[len(DirectivePrefix):]
		if rest == name {
			return "", true
		}
		if strings.HasPrefix(rest, name+" ") || strings.HasPrefix(rest, name+"\t") {
			return strings.TrimSpace(rest[len(name):]), true
		}
	}
	return "", false
}

func receiverBase(expr goast.Expr) (name string, ptr, generic bool) {
	switch t := expr.(type) {
	case *goast.StarExpr:
		name, _, generic = receiverBase(t.X)
		return name, true, generic
	case *goast.Ident:
		return t.Name, false, false
	case *goast.IndexExpr:
		name, _, _ = receiverBase(t.X)
		return name, false, true
	case *goast.IndexListExpr:
		name, _, _ = receiverBase(t.X)
		return name, false, true
	}
	return "", false, false
}

func exprShape(expr goast.Expr) ast.ParamShape {
	switch t := expr.(type) {
	case *goast.Ident:
		return ast.ShapeNamed
	case *goast.SelectorExpr:
		return ast.ShapeNamed
	case *goast.StarExpr:
		if exprShape(t.X) == ast.ShapeNamed {
			return ast.ShapePointer
		}
		return ast.ShapeOther
	}
	return ast.ShapeOther
}

func typeSpecKind(ts *goast.TypeSpec) string {
	switch ts.Type.(type) {
	case *goast.InterfaceType:
		return "interface"
	case *goast.FuncType:
		return "func type"
	case *goast.MapType, *goast.ArrayType, *goast.ChanType:
		return "type alias"
	}
	return "type"
}

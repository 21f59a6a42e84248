package transform

import (
	"fmt"
	"go/importer"
	"go/token"
	"go/types"
	"strings"

	goast "go/ast"
	goparser "go/parser"
)

// validator parses and type-checks emitted source in memory, catching
// synthesis bugs before the generated file reaches the user's build. Errors
// caused by imports the in-process importer cannot resolve (the module's own
// packages, cgo) are filtered out; everything else is a genuine finding.
type validator struct {
	filename string
}

func newValidator(filename string) *validator {
	return &validator{filename: filename}
}

func (v *validator) validate(source string) []string {
	fset := token.NewFileSet()

	file, err := goparser.ParseFile(fset, v.filename, source, goparser.AllErrors)
	if err != nil {
		return []string{err.Error()}
	}

	var findings []string
	conf := types.Config{
		Importer:    importer.Default(),
		FakeImportC: true,
		Error: func(err error) {
			typeErr, ok := err.(types.Error)
			if !ok {
				findings = append(findings, err.Error())
				return
			}
			msg := typeErr.Msg
			if ignorableTypeError(msg) {
				return
			}
			pos := fset.Position(typeErr.Pos)
			findings = append(findings, fmt.Sprintf("%d:%d: %s", pos.Line, pos.Column, msg))
		},
	}

	_, _ = conf.Check(strings.TrimSuffix(v.filename, ".go"), fset, []*goast.File{file}, nil)
	return findings
}

func ignorableTypeError(msg string) bool {
	// The importer cannot see this module's own packages; errors rooted in
	// unresolved imports cascade and carry no signal about synthesis.
	return strings.Contains(msg, "could not import") ||
		strings.Contains(msg, "undefined: jni") ||
		strings.Contains(msg, "undefined: C")
}

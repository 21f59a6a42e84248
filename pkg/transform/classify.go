package transform

import "github.com/giovanniberti/hostbridge/pkg/ast"

// Classify buckets a method by its calling-convention marker. It is a pure
// function with no failure mode: an unrecognized or absent marker always
// yields Unexported.
func Classify(marker string) ast.MethodKind {
	switch marker {
	case "export":
		return ast.Exported
	case "import":
		return ast.Imported
	}
	return ast.Unexported
}

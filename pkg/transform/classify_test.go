package transform

import (
	"testing"

	"github.com/giovanniberti/hostbridge/pkg/ast"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		marker string
		want   ast.MethodKind
	}{
		{"export", ast.Exported},
		{"import", ast.Imported},
		{"", ast.Unexported},
		{"exported", ast.Unexported},
		{"Export", ast.Unexported},
	}
	for _, tc := range tests {
		if got := Classify(tc.marker); got != tc.want {
			t.Errorf("Classify(%q) = %v, want %v", tc.marker, got, tc.want)
		}
	}
}

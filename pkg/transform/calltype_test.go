package transform

import (
	"go/token"
	"testing"

	"github.com/giovanniberti/hostbridge/pkg/ast"
	"github.com/giovanniberti/hostbridge/pkg/diag"
)

func TestParseCallType(t *testing.T) {
	defaults := ast.DefaultCallType()
	pos := token.Position{Filename: "bridge.go", Line: 1, Column: 1}

	tests := []struct {
		name      string
		raw       string
		unchecked bool
		exception string
		message   string
		warnings  int
	}{
		{"empty", "", false, "java/lang/RuntimeException", "JNI conversion error!", 0},
		{"safe", "safe", false, "java/lang/RuntimeException", "JNI conversion error!", 0},
		{"unchecked", "unchecked", true, "", "", 0},
		{
			"exception override", "safe(exception=com.example.MyError)",
			false, "com/example/MyError", "JNI conversion error!", 0,
		},
		{
			"message override", `safe(message="boom")`,
			false, "java/lang/RuntimeException", "boom", 0,
		},
		{
			"both", `safe(exception=com.example.MyError, message="boom, twice")`,
			false, "com/example/MyError", "boom, twice", 0,
		},
		{"garbage", "frobnicate", false, "java/lang/RuntimeException", "JNI conversion error!", 1},
		{"unknown option", "safe(color=red)", false, "java/lang/RuntimeException", "JNI conversion error!", 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var bag diag.Bag
			ct := parseCallType(tc.raw, defaults, pos, &bag)
			if ct.Unchecked != tc.unchecked {
				t.Errorf("Unchecked = %v, want %v", ct.Unchecked, tc.unchecked)
			}
			if ct.ExceptionClass != tc.exception {
				t.Errorf("ExceptionClass = %q, want %q", ct.ExceptionClass, tc.exception)
			}
			if ct.Message != tc.message {
				t.Errorf("Message = %q, want %q", ct.Message, tc.message)
			}
			if got := len(bag.Diagnostics()); got != tc.warnings {
				t.Errorf("diagnostics = %d, want %d", got, tc.warnings)
			}
			if bag.HasErrors() {
				t.Error("call type parsing must never record hard errors")
			}
		})
	}
}

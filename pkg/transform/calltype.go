package transform

import (
	"go/token"
	"strconv"
	"strings"

	"github.com/giovanniberti/hostbridge/pkg/ast"
	"github.com/giovanniberti/hostbridge/pkg/diag"
)

// parseCallType interprets a //bridge:call payload. Recognized forms:
//
//	safe
//	safe(exception=com.example.MyException, message="custom text")
//	unchecked
//
// An unparsable payload downgrades to the safe default with a warning; it
// never aborts expansion.
func parseCallType(raw string, defaults ast.CallType, pos token.Position, bag *diag.Bag) ast.CallType {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "", "safe":
		return defaults
	case "unchecked":
		return ast.CallType{Unchecked: true}
	}

	if inner, ok := strings.CutPrefix(raw, "safe("); ok && strings.HasSuffix(inner, ")") {
		ct := defaults
		body := strings.TrimSuffix(inner, ")")
		for _, kv := range splitArgs(body) {
			key, val, found := strings.Cut(kv, "=")
			if !found {
				bag.Warnf(pos, "unrecognized //bridge:call option %q; using safe defaults", kv)
				return defaults
			}
			key = strings.TrimSpace(key)
			val = strings.TrimSpace(val)
			if unq, err := strconv.Unquote(val); err == nil {
				val = unq
			}
			switch key {
			case "exception":
				ct.ExceptionClass = strings.ReplaceAll(val, ".", "/")
			case "message":
				ct.Message = val
			default:
				bag.Warnf(pos, "unrecognized //bridge:call option %q; using safe defaults", key)
				return defaults
			}
		}
		return ct
	}

	bag.Warnf(pos, "cannot parse //bridge:call %q; using safe defaults", raw)
	return defaults
}

// splitArgs splits on commas outside quoted strings.
func splitArgs(s string) []string {
	var out []string
	depth := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			depth = !depth
		case ',':
			if !depth {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

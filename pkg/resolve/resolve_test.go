package resolve

import (
	"errors"
	"strings"
	"testing"

	"github.com/giovanniberti/hostbridge/pkg/ast"
	"github.com/giovanniberti/hostbridge/pkg/diag"
	"github.com/giovanniberti/hostbridge/pkg/parser"
)

func parse(t *testing.T, src string) *ast.Module {
	t.Helper()
	mod, err := parser.ParseSource("bridge.go", src)
	if err != nil {
		t.Fatalf("ParseSource: %v", err)
	}
	return mod
}

func TestResolveBridged(t *testing.T) {
	mod := parse(t, `package bridge

//bridge:namespace com.example.app
type User struct {
	raw jni.Object //bridge:instance
}

//bridge:export
func (u User) GetName() string { return "" }

//bridge:namespace com.example.app
type Empty struct{}

type Plain struct{}
`)
	var bag diag.Bag
	nsMap, err := Resolve(mod, &bag)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	ns, ok := nsMap["User"]
	if !ok {
		t.Fatal("User not in namespace map")
	}
	if ns.Classpath() != "com/example/app" {
		t.Errorf("User classpath = %q, want com/example/app", ns.Classpath())
	}

	// Empty (namespace, no methods) and Plain (neither) are dropped with
	// warnings, not errors.
	if _, ok := nsMap["Empty"]; ok {
		t.Error("Empty should not be in namespace map")
	}
	warnings := 0
	for _, d := range bag.Diagnostics() {
		if d.Severity == diag.Warning {
			warnings++
		}
	}
	if warnings != 2 {
		t.Errorf("warnings = %d, want 2", warnings)
	}
}

func TestResolveMissingNamespace(t *testing.T) {
	mod := parse(t, `package bridge

type User struct{}

//bridge:export
func (u User) GetName() string { return "" }
`)
	var bag diag.Bag
	_, err := Resolve(mod, &bag)
	if err == nil {
		t.Fatal("Resolve: want error for struct with methods but no namespace")
	}
	if !errors.Is(err, diag.ErrExpansion) {
		t.Errorf("error %v should wrap ErrExpansion", err)
	}
}

func TestResolveAccumulatesErrors(t *testing.T) {
	mod := parse(t, `package bridge

type A struct{}

//bridge:export
func (a A) M() {}

type B struct{}

//bridge:export
func (b B) N() {}
`)
	var bag diag.Bag
	_, err := Resolve(mod, &bag)
	if err == nil {
		t.Fatal("Resolve: want error")
	}

	// Both structs are diagnosed in one run.
	errCount := 0
	for _, d := range bag.Diagnostics() {
		if d.Severity == diag.Error {
			errCount++
		}
	}
	if errCount != 2 {
		t.Errorf("errors = %d, want 2", errCount)
	}
}

func TestResolveStrayDirective(t *testing.T) {
	mod := parse(t, `package bridge

//bridge:namespace com.example
func Orphan() {}
`)
	var bag diag.Bag
	_, err := Resolve(mod, &bag)
	if err == nil {
		t.Fatal("Resolve: want error for stray namespace directive")
	}
	found := false
	for _, d := range bag.Diagnostics() {
		if strings.Contains(d.Message, "only valid on struct declarations") {
			found = true
		}
	}
	if !found {
		t.Error("missing stray-directive diagnostic")
	}
}

func TestResolveOwnerlessMarker(t *testing.T) {
	mod := parse(t, `package bridge

//bridge:export
func Loose() {}
`)
	var bag diag.Bag
	_, err := Resolve(mod, &bag)
	if err == nil {
		t.Fatal("Resolve: want error for receiverless marked function without owner")
	}
	found := false
	for _, d := range bag.Diagnostics() {
		if d.Note != "" && strings.Contains(d.Note, "//bridge:export <StructName>") {
			found = true
		}
	}
	if !found {
		t.Error("diagnostic should carry a fix-it note")
	}
}

func TestResolveUndeclaredOwner(t *testing.T) {
	mod := parse(t, `package bridge

//bridge:export Ghost
func Haunt() {}
`)
	var bag diag.Bag
	_, err := Resolve(mod, &bag)
	if err == nil {
		t.Fatal("Resolve: want error for undeclared owner struct")
	}
}

func TestResolveGenericBridged(t *testing.T) {
	mod := parse(t, `package bridge

//bridge:namespace app
type Box[T any] struct{ v T }

//bridge:export
func (b Box[T]) Get() string { return "" }
`)
	var bag diag.Bag
	_, err := Resolve(mod, &bag)
	if err == nil {
		t.Fatal("Resolve: want error for generic bridged struct")
	}
}

func TestResolveBadNamespace(t *testing.T) {
	mod := parse(t, `package bridge

//bridge:namespace com-example.app
type User struct{}

//bridge:export
func (u User) M() {}
`)
	var bag diag.Bag
	_, err := Resolve(mod, &bag)
	if err == nil {
		t.Fatal("Resolve: want error for dashed namespace")
	}
	found := false
	for _, d := range bag.Diagnostics() {
		if strings.Contains(d.Message, "dash") {
			found = true
		}
	}
	if !found {
		t.Error("missing dash diagnostic")
	}
}

package transform

import (
	"strings"
	"testing"

	"github.com/giovanniberti/hostbridge/pkg/diag"
	"github.com/giovanniberti/hostbridge/pkg/parser"
	"github.com/giovanniberti/hostbridge/pkg/resolve"
)

// expand runs the full pipeline over one in-memory file. Validation is
// skipped: the emitted file imports this module's own packages, which the
// in-process importer cannot see from a unit test.
func expand(t *testing.T, src string) (*Result, *diag.Bag) {
	t.Helper()
	mod, err := parser.ParseSource("bridge.go", src)
	if err != nil {
		t.Fatalf("ParseSource: %v", err)
	}
	var bag diag.Bag
	nsMap, err := resolve.Resolve(mod, &bag)
	if err != nil {
		t.Fatalf("Resolve: %v\n%s", err, diagDump(&bag))
	}
	res := New(mod, nsMap, Options{SkipValidation: true}, &bag).Generate()
	return res, &bag
}

func diagDump(bag *diag.Bag) string {
	var b strings.Builder
	for _, d := range bag.Diagnostics() {
		b.WriteString(d.String())
		b.WriteString("\n")
	}
	return b.String()
}

func mustContain(t *testing.T, code, want string) {
	t.Helper()
	if !strings.Contains(code, want) {
		t.Errorf("emitted code missing %q\n----\n%s", want, code)
	}
}

const userSrc = `//go:build hostbridge

package bridge

import "github.com/giovanniberti/hostbridge/jni"

//bridge:namespace com.example.app
type User struct {
	//bridge:instance
	raw  jni.Object
	name string
}

//bridge:export
func (u User) GetName() string {
	return u.name
}

//bridge:import
func (u User) GetAge() (int32, error)
`

func TestGenerateExportedSafe(t *testing.T) {
	res, bag := expand(t, userSrc)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", diagDump(bag))
	}
	code := res.Code

	mustContain(t, code, "// Code generated by hostbridge. DO NOT EDIT.")
	mustContain(t, code, "package bridge")
	mustContain(t, code, `import "C"`)

	// Entry point under the mangled symbol, cgo-exported.
	mustContain(t, code, "//export Host_com_example_app_User_getName")
	mustContain(t, code, "//go:noinline")
	mustContain(t, code, "func Host_com_example_app_User_getName(env jni.EnvRef, this jni.ObjectRef) jni.StringRef")
	mustContain(t, code, "jni.Wrap(env)")
	mustContain(t, code, "TryUserFromObject(")

	// Safe mode raises the default exception on conversion failure.
	mustContain(t, code, `.ThrowNew("java/lang/RuntimeException", "JNI conversion error!")`)

	// The user's method survives verbatim as the inner function.
	mustContain(t, code, "func (u User) GetName() string {")
	mustContain(t, code, "return u.name")

	// Directives never reach the output.
	if strings.Contains(code, "//bridge:") {
		t.Error("emitted code contains a bridge directive")
	}
	if strings.Contains(code, "//go:build") {
		t.Error("emitted code contains a build constraint")
	}
}

func TestGenerateImportedSafe(t *testing.T) {
	res, bag := expand(t, userSrc)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", diagDump(bag))
	}
	code := res.Code

	// The empty-bodied declaration is replaced by a call-out stub with
	// the trailing error stripped from the host descriptor.
	mustContain(t, code, "func (u User) GetAge() (int32, error) {")
	mustContain(t, code, `.CallMethod(u.raw.Ref, "com/example/app/User", "getAge", "()I")`)
	mustContain(t, code, "jni.TryIntResult(")

	// The stub reaches the environment through the instance field.
	mustContain(t, code, "u.raw.Env")
}

func TestGenerateDerives(t *testing.T) {
	res, bag := expand(t, userSrc)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", diagDump(bag))
	}
	code := res.Code

	mustContain(t, code, `const UserSignature = "Lcom/example/app/User;"`)
	mustContain(t, code, "func (User) Signature() string")
	mustContain(t, code, `const UserArraySignature = "[" + UserSignature`)
	mustContain(t, code, "func TryUserFromObject(e *jni.Env, ref jni.ObjectRef) (User, error)")
	mustContain(t, code, "func UserFromObject(e *jni.Env, ref jni.ObjectRef) User")
	mustContain(t, code, "func (v User) Object() jni.ObjectRef")
	mustContain(t, code, "var _ jni.Object = User{}.raw")
}

func TestGenerateUnchecked(t *testing.T) {
	res, bag := expand(t, `package bridge

import "github.com/giovanniberti/hostbridge/jni"

//bridge:namespace app
type Counter struct {
	//bridge:instance
	raw jni.Object
}

//bridge:export
//bridge:call unchecked
func (c Counter) Add(n int32) int32 {
	return n + 1
}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", diagDump(bag))
	}
	code := res.Code

	mustContain(t, code, "//export Host_app_Counter_add")
	mustContain(t, code, "func Host_app_Counter_add(env jni.EnvRef, this jni.ObjectRef, n jni.IntRef) jni.IntRef")
	// Unchecked conversions are direct, no exception site.
	mustContain(t, code, "CounterFromObject(")
	mustContain(t, code, "jni.GoInt(")
	mustContain(t, code, "jni.JavaInt(")
	if strings.Contains(code, "ThrowNew") {
		t.Error("unchecked expansion should not raise exceptions")
	}
}

func TestGenerateStaticExported(t *testing.T) {
	res, bag := expand(t, `package bridge

import "github.com/giovanniberti/hostbridge/jni"

//bridge:namespace com.example.app
type User struct {
	//bridge:instance
	raw jni.Object
}

//bridge:export User
func Describe(env *jni.Env, name string) string {
	return "user " + name
}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", diagDump(bag))
	}
	code := res.Code

	// Static entry points take a class handle instead of an instance.
	mustContain(t, code, "func Host_com_example_app_User_describe(env jni.EnvRef, cls jni.ClassRef, name jni.StringRef) jni.StringRef")
	// The threaded environment parameter is not marshaled: the descriptor
	// covers the string parameter only.
	mustContain(t, code, "Describe(")
	if !strings.Contains(code, "jni.Wrap(env)") {
		t.Error("static export should wrap the raw environment handle")
	}
}

func TestGenerateStaticImported(t *testing.T) {
	res, bag := expand(t, `package bridge

import "github.com/giovanniberti/hostbridge/jni"

//bridge:namespace app
type Registry struct {
	//bridge:instance
	raw jni.Object
}

//bridge:import Registry
func Lookup(env *jni.Env, key string) (string, error)
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", diagDump(bag))
	}
	code := res.Code

	mustContain(t, code, `.CallStaticMethod("app/Registry", "lookup", "(Ljava/lang/String;)Ljava/lang/String;"`)
	mustContain(t, code, "func Lookup(env *jni.Env, key string) (string, error)")
	mustContain(t, code, "jni.TryStringResult(")
}

func TestGenerateCustomException(t *testing.T) {
	res, bag := expand(t, `package bridge

import "github.com/giovanniberti/hostbridge/jni"

//bridge:namespace app
type User struct {
	//bridge:instance
	raw jni.Object
}

//bridge:export
//bridge:call safe(exception=com.example.BridgeError, message="conversion failed")
func (u User) GetName() string {
	return ""
}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", diagDump(bag))
	}
	mustContain(t, res.Code, `.ThrowNew("com/example/BridgeError", "conversion failed")`)
}

func TestGenerateObjectReturn(t *testing.T) {
	res, bag := expand(t, `package bridge

import "github.com/giovanniberti/hostbridge/jni"

//bridge:namespace app
type User struct {
	//bridge:instance
	raw jni.Object
}

//bridge:export
func (u User) Clone() User {
	return u
}

//bridge:import
func (u User) Parent() (User, error)
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", diagDump(bag))
	}
	code := res.Code

	// Returned bridged values cross the boundary through their instance
	// handle; the descriptor uses the derived object signature.
	mustContain(t, code, "func Host_app_User_clone(env jni.EnvRef, this jni.ObjectRef) jni.ObjectRef")
	mustContain(t, code, ".Object(), nil")
	mustContain(t, code, `.CallMethod(u.raw.Ref, "app/User", "parent", "()Lapp/User;")`)
	mustContain(t, code, "jni.TryObjectResult(")
	mustContain(t, code, "TryUserFromObject(")
}

func TestDirectiveStripping(t *testing.T) {
	res, bag := expand(t, `//go:build hostbridge

package bridge

import "github.com/giovanniberti/hostbridge/jni"

// User mirrors the host user record.
//bridge:namespace com.example.app
type User struct {
	//bridge:instance
	raw  jni.Object
	name string // display name
}

// GetName returns the display name.
//bridge:export
func (u User) GetName() string {
	return u.name
}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", diagDump(bag))
	}
	code := res.Code

	// Directives must not survive into the output: the emitted file has no
	// build constraint, so a live directive would be re-expanded on the
	// next run.
	for _, stray := range []string{"//bridge:", "//go:build", "// +build"} {
		if strings.Contains(code, stray) {
			t.Errorf("emitted code contains %q\n----\n%s", stray, code)
		}
	}

	// Surviving doc and field comments appear exactly once.
	for _, doc := range []string{
		"// User mirrors the host user record.",
		"// display name",
		"// GetName returns the display name.",
	} {
		if got := strings.Count(code, doc); got != 1 {
			t.Errorf("emitted code contains %q %d times, want 1\n----\n%s", doc, got, code)
		}
	}
}

func TestGenericReceiverPassthrough(t *testing.T) {
	res, bag := expand(t, `package bridge

import "github.com/giovanniberti/hostbridge/jni"

//bridge:namespace com.example.app
type User struct {
	//bridge:instance
	raw jni.Object
}

//bridge:export
func (u User) Ping() {}

//bridge:export
func (b Box[T]) Get() int32 {
	return 0
}
`)
	if bag.HasErrors() {
		t.Fatalf("generic receiver should not be a hard error:\n%s", diagDump(bag))
	}

	warned := false
	for _, d := range bag.Diagnostics() {
		if d.Severity == diag.Warning && strings.Contains(d.Message, "generic receiver") {
			warned = true
		}
	}
	if !warned {
		t.Error("missing generic-receiver warning")
	}

	// The declaration passes through verbatim, unexpanded.
	mustContain(t, res.Code, "func (b Box[T]) Get() int32 {")
	if strings.Contains(res.Code, "Host_com_example_app_Box") {
		t.Error("generic receiver method must not gain an entry point")
	}
}

func TestUnderscoreMethodName(t *testing.T) {
	mod, err := parser.ParseSource("bridge.go", `package bridge

import "github.com/giovanniberti/hostbridge/jni"

//bridge:namespace app
type User struct {
	//bridge:instance
	raw jni.Object
}

//bridge:export
func (u User) get_value() string {
	return ""
}
`)
	if err != nil {
		t.Fatalf("ParseSource: %v", err)
	}
	var bag diag.Bag
	nsMap, err := resolve.Resolve(mod, &bag)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	New(mod, nsMap, Options{SkipValidation: true}, &bag).Generate()
	if !bag.HasErrors() {
		t.Fatal("want error for underscore in method name")
	}
	found := false
	for _, d := range bag.Diagnostics() {
		if strings.Contains(d.Message, "underscore") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing underscore diagnostic:\n%s", diagDump(&bag))
	}
}

func TestImportedNonEmptyBody(t *testing.T) {
	mod, err := parser.ParseSource("bridge.go", `package bridge

import "github.com/giovanniberti/hostbridge/jni"

//bridge:namespace app
type User struct {
	//bridge:instance
	raw jni.Object
}

//bridge:import
func (u User) GetAge() (int32, error) {
	return 0, nil
}
`)
	if err != nil {
		t.Fatalf("ParseSource: %v", err)
	}
	var bag diag.Bag
	nsMap, err := resolve.Resolve(mod, &bag)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	res := New(mod, nsMap, Options{SkipValidation: true}, &bag).Generate()
	if !bag.HasErrors() {
		t.Fatal("want error for imported method with a body")
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Name != "GetAge" {
		t.Errorf("Skipped = %+v, want GetAge", res.Skipped)
	}
}

func TestSafeImportedNeedsError(t *testing.T) {
	mod, err := parser.ParseSource("bridge.go", `package bridge

import "github.com/giovanniberti/hostbridge/jni"

//bridge:namespace app
type User struct {
	//bridge:instance
	raw jni.Object
}

//bridge:import
func (u User) GetAge() int32
`)
	if err != nil {
		t.Fatalf("ParseSource: %v", err)
	}
	var bag diag.Bag
	nsMap, err := resolve.Resolve(mod, &bag)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	New(mod, nsMap, Options{SkipValidation: true}, &bag).Generate()
	found := false
	for _, d := range bag.Diagnostics() {
		if strings.Contains(d.Message, "trailing error result") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing trailing-error diagnostic:\n%s", diagDump(&bag))
	}
}

func TestUnmappedParamType(t *testing.T) {
	mod, err := parser.ParseSource("bridge.go", `package bridge

import "github.com/giovanniberti/hostbridge/jni"

//bridge:namespace app
type User struct {
	//bridge:instance
	raw jni.Object
}

//bridge:export
func (u User) Feed(data []byte) {
}
`)
	if err != nil {
		t.Fatalf("ParseSource: %v", err)
	}
	var bag diag.Bag
	nsMap, err := resolve.Resolve(mod, &bag)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	res := New(mod, nsMap, Options{SkipValidation: true}, &bag).Generate()
	if !bag.HasErrors() {
		t.Fatal("want error for unmappable parameter type")
	}
	// The method is skipped but its declaration still passes through.
	if len(res.Skipped) != 1 {
		t.Errorf("Skipped = %+v, want one entry", res.Skipped)
	}
	mustContain(t, res.Code, "func (u User) Feed(data []byte) {")
}

func TestStaticImportedNeedsEnv(t *testing.T) {
	mod, err := parser.ParseSource("bridge.go", `package bridge

import "github.com/giovanniberti/hostbridge/jni"

//bridge:namespace app
type User struct {
	//bridge:instance
	raw jni.Object
}

//bridge:import User
func Lookup(key string) (string, error)
`)
	if err != nil {
		t.Fatalf("ParseSource: %v", err)
	}
	var bag diag.Bag
	nsMap, err := resolve.Resolve(mod, &bag)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	New(mod, nsMap, Options{SkipValidation: true}, &bag).Generate()
	found := false
	for _, d := range bag.Diagnostics() {
		if strings.Contains(d.Message, "requires a *jni.Env parameter") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing env-parameter diagnostic:\n%s", diagDump(&bag))
	}
}

func TestPassthrough(t *testing.T) {
	res, bag := expand(t, `package bridge

import "github.com/giovanniberti/hostbridge/jni"

//bridge:namespace app
type User struct {
	//bridge:instance
	raw jni.Object
}

//bridge:export
func (u User) Ping() {}

// limit caps retained handles.
const limit = 16

// helper is untouched by expansion.
func helper(n int) int {
	return n * 2
}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", diagDump(bag))
	}
	code := res.Code

	mustContain(t, code, "const limit = 16")
	mustContain(t, code, "// helper is untouched by expansion.")
	mustContain(t, code, "func helper(n int) int {")
	// Void exported method: no return segment in the wrapper signature.
	mustContain(t, code, "func Host_app_User_ping(env jni.EnvRef, this jni.ObjectRef) {")
}

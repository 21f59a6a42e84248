package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), ".hostbridge", "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutGet(t *testing.T) {
	c := openTemp(t)

	if err := c.Put("k1", "package bridge\n"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	code, err := c.Get("k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if code != "package bridge\n" {
		t.Errorf("Get = %q", code)
	}

	// Replacement, not duplication.
	if err := c.Put("k1", "updated"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	code, err = c.Get("k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if code != "updated" {
		t.Errorf("Get after replace = %q, want updated", code)
	}
}

func TestGetMiss(t *testing.T) {
	c := openTemp(t)
	if _, err := c.Get("absent"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get(absent) error = %v, want ErrMiss", err)
	}
}

func TestKeyOrderIndependent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.go")
	b := filepath.Join(dir, "b.go")
	if err := os.WriteFile(a, []byte("package x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("package x\n\nvar V = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	k1, err := Key([]string{a, b})
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	k2, err := Key([]string{b, a})
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if k1 != k2 {
		t.Error("key should not depend on file order")
	}

	if err := os.WriteFile(b, []byte("package x\n\nvar V = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	k3, err := Key([]string{a, b})
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if k3 == k1 {
		t.Error("key should change when a file changes")
	}
}

func TestKeyIncludesOptions(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.go")
	if err := os.WriteFile(a, []byte("package x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	base, err := Key([]string{a}, "java/lang/RuntimeException", "JNI conversion error!")
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	same, err := Key([]string{a}, "java/lang/RuntimeException", "JNI conversion error!")
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if same != base {
		t.Error("identical options should yield identical keys")
	}

	// A reconfigured exception class must not hit the old artifact.
	changed, err := Key([]string{a}, "com/example/BridgeError", "JNI conversion error!")
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if changed == base {
		t.Error("key should change with the exception class")
	}

	noOpts, err := Key([]string{a})
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if noOpts == base {
		t.Error("key should distinguish option-less invocations")
	}
}

func TestKeyMissingFile(t *testing.T) {
	if _, err := Key([]string{filepath.Join(t.TempDir(), "absent.go")}); err == nil {
		t.Error("Key: want error for a missing input file")
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Put("persist", "code"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c2.Close()
	code, err := c2.Get("persist")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if code != "code" {
		t.Errorf("Get after reopen = %q, want code", code)
	}
}

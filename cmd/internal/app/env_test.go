package app

import (
	"testing"
	"time"
)

func TestEnvString(t *testing.T) {
	t.Setenv("PATCH_TEST_STRING", "  hello  ")
	if got := EnvString("PATCH_TEST_STRING", "def"); got != "hello" {
		t.Fatalf("EnvString=%q", got)
	}
	if got := EnvString("PATCH_TEST_STRING_MISSING", "def"); got != "def" {
		t.Fatalf("EnvString default=%q", got)
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("PATCH_TEST_BOOL", "true")
	if !EnvBool("PATCH_TEST_BOOL", false) {
		t.Fatalf("EnvBool true")
	}
	t.Setenv("PATCH_TEST_BOOL", "nonsense")
	if !EnvBool("PATCH_TEST_BOOL", true) {
		t.Fatalf("EnvBool invalid must fall back to default")
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("PATCH_TEST_INT", "42")
	if got := EnvInt("PATCH_TEST_INT", 7); got != 42 {
		t.Fatalf("EnvInt=%d", got)
	}
	t.Setenv("PATCH_TEST_INT", "-3")
	if got := EnvInt("PATCH_TEST_INT", 7); got != 7 {
		t.Fatalf("EnvInt negative must fall back: %d", got)
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("PATCH_TEST_DUR", "250ms")
	if got := EnvDuration("PATCH_TEST_DUR", time.Second); got != 250*time.Millisecond {
		t.Fatalf("EnvDuration=%v", got)
	}
	t.Setenv("PATCH_TEST_DUR", "0s")
	if got := EnvDuration("PATCH_TEST_DUR", time.Second); got != time.Second {
		t.Fatalf("EnvDuration zero must fall back: %v", got)
	}
}

func TestEnvStringSlice(t *testing.T) {
	t.Setenv("PATCH_TEST_SLICE", "a, b ,,c")
	got := EnvStringSlice("PATCH_TEST_SLICE", nil)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("EnvStringSlice=%v", got)
	}
	if def := EnvStringSlice("PATCH_TEST_SLICE_MISSING", []string{"x"}); len(def) != 1 || def[0] != "x" {
		t.Fatalf("EnvStringSlice default=%v", def)
	}
}

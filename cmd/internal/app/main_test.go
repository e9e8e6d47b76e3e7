package app

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	os.Setenv("PATCH_ARGON2_MEMORY_KIB", "8192")
	os.Setenv("PATCH_ARGON2_ITERATIONS", "1")
	os.Exit(m.Run())
}

package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewValidateCmd(t *testing.T) {
	t.Parallel()

	cmd := NewValidateCmd()
	for flag, shorthand := range map[string]string{"check-links": "L", "json": "j", "output": "o"} {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			t.Errorf("expected flag %q to exist", flag)
			continue
		}
		if f.Shorthand != shorthand {
			t.Errorf("flag %q: expected shorthand %q, got %q", flag, shorthand, f.Shorthand)
		}
	}
	if cmd.Flags().Lookup("ignore") == nil || cmd.Flags().Lookup("link-concurrency") == nil {
		t.Error("expected link checker flags")
	}
}

func TestRunValidateCmd(t *testing.T) {
	t.Run("valid gallery", func(t *testing.T) {
		env := newTestEnv(t, "")

		out, _, err := env.run(t, "validate")
		if err != nil {
			t.Fatalf("validate failed: %v\n%s", err, out)
		}
		for _, want := range []string{"Gallery:    prompts", "Records:    5", "No problems found"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("missing source fails", func(t *testing.T) {
		env := newTestEnv(t, "")
		if err := os.Remove(env.source); err != nil {
			t.Fatal(err)
		}

		out, _, err := env.run(t, "validate", "prompts")
		if !errors.Is(err, errValidationFailed) {
			t.Fatalf("expected errValidationFailed, got %v", err)
		}
		if !strings.Contains(out, "[ERROR] prompts") {
			t.Errorf("expected an error finding:\n%s", out)
		}
	})

	t.Run("report file is echoed to stdout", func(t *testing.T) {
		env := newTestEnv(t, "")
		path := filepath.Join(t.TempDir(), "validate.md")

		out, _, err := env.run(t, "validate", "--markdown", "-o", path)
		if err != nil {
			t.Fatalf("validate failed: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("report file not written: %v", err)
		}
		if len(data) == 0 {
			t.Error("report file is empty")
		}
		if !strings.Contains(out, "SHOWCASE VALIDATION") {
			t.Errorf("expected text echo on stdout:\n%s", out)
		}
	})

	t.Run("unknown gallery", func(t *testing.T) {
		env := newTestEnv(t, "")
		_, _, err := env.run(t, "validate", "nope")
		if err == nil || !strings.Contains(err.Error(), "nope") {
			t.Errorf("expected unknown gallery error, got %v", err)
		}
	})
}

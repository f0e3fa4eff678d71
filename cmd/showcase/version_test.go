package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"version"})
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}

	for _, want := range []string{"showcase version", "commit:", "built:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestGetVersionNotEmpty(t *testing.T) {
	t.Parallel()

	if getVersion() == "" {
		t.Error("expected a non-empty version")
	}
	if getCommit() == "" || getDate() == "" {
		t.Error("expected non-empty commit and date")
	}
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/showcase/internal/config"
)

const promptsJSON = `[
  {"title": "Summarize", "category": "Writing", "body": "Summarize the text in three sentences."},
  {"title": "Fox story", "category": "Fiction", "body": "A quick brown fox jumps at night."},
  {"title": "Translate", "category": "Writing", "body": "Translate into **French**."},
  {"title": "Owl story", "category": "Fiction", "body": "Owls hunt at night."},
  {"title": "Outline", "category": "Writing", "body": "Outline an essay."}
]`

// testEnv is a temporary configuration directory with a prompts gallery.
type testEnv struct {
	dir    string
	data   string
	config string
	source string
}

// newTestEnv writes a config file and its source document to a temporary
// directory and points the data directory at another one. extra is
// appended to the prompts gallery definition.
//
// It sets environment variables, so callers must not run in parallel.
func newTestEnv(t *testing.T, extra string) *testEnv {
	t.Helper()

	dir := t.TempDir()
	env := &testEnv{
		dir:    dir,
		config: filepath.Join(dir, ".showcase"),
		data:   t.TempDir(),
		source: filepath.Join(dir, "prompts.json"),
	}
	env.writeSource(t, promptsJSON)

	var sb strings.Builder
	sb.WriteString("galleries:\n")
	sb.WriteString("  prompts:\n")
	sb.WriteString("    title: Prompts\n")
	sb.WriteString("    source: prompts.json\n")
	sb.WriteString("    page_size: 2\n")
	sb.WriteString(extra)
	sb.WriteString("server:\n  addr: 127.0.0.1:9191\n")
	if err := os.WriteFile(env.config, []byte(sb.String()), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv(config.EnvDataDir, env.data)
	t.Setenv(config.EnvGatePassword, "")
	t.Setenv(config.EnvAddr, "")
	t.Setenv(config.EnvConfig, "")
	return env
}

func (e *testEnv) writeSource(t *testing.T, data string) {
	t.Helper()
	if err := os.WriteFile(e.source, []byte(data), 0600); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}
}

// run executes the root command with -C pointing at the test config.
func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return e.runWithInput(t, "", args...)
}

func (e *testEnv) runWithInput(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(append([]string{"-C", e.config}, args...))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(input))
	err := cmd.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}

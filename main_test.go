package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	x "github.com/plcfront/cfcc/plcxml/plcxmltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mainDecl = `PROGRAM main
VAR
    a, b : DINT;
END_VAR
END_PROGRAM`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCLI(t *testing.T, environ []string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, environ, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "expected *ExitError, got %v", err)
	return exitErr.Code
}

func TestRunPrintsStatements(t *testing.T) {
	t.Setenv("CFCCACHE", t.TempDir())
	dir := t.TempDir()
	file := writeFile(t, dir, "main.xml", x.Pou("main", "program", mainDecl,
		x.InVariable(1, "a"), x.OutVariable(2, "b", 1)))

	stdout, _, err := runCLI(t, nil, file)
	require.NoError(t, err)
	assert.Contains(t, stdout, "PROGRAM main")
	assert.Contains(t, stdout, "(* main *)\nb := a;\n")
}

func TestRunReportsDiagnostics(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "main.xml", x.Pou("main", "program", mainDecl,
		x.OutVariable(2, "b", 99)))

	_, stderr, err := runCLI(t, nil, "-log-format", "json", file)
	require.Equal(t, 1, exitCode(t, err))
	assert.Contains(t, stderr, `"code":"E004"`)
	assert.Contains(t, stderr, `"local_id":2`)
}

func TestRunUnsupportedInput(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "main.xml", x.Pou("main", "program", ""))

	_, stderr, err := runCLI(t, nil, file)
	require.Equal(t, 1, exitCode(t, err))
	assert.Contains(t, stderr, "no textual declaration")
}

func TestRunMissingFile(t *testing.T) {
	_, _, err := runCLI(t, nil, filepath.Join(t.TempDir(), "nope.xml"))
	require.Equal(t, 1, exitCode(t, err))
}

func TestRunWritesStubsAndProject(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	writeFile(t, dir, "cfcc.hcl", `
emit_project = true
cache_dir    = "${env.OUT}/cache"
stubs        = "${env.OUT}/stubs.ll"
`)
	file := writeFile(t, dir, "main.xml", x.Pou("main", "program", mainDecl,
		x.InVariable(1, "a"), x.OutVariable(2, "b", 1)))

	_, _, err := runCLI(t, []string{"OUT=" + out}, file)
	require.NoError(t, err)

	ir, err := os.ReadFile(filepath.Join(out, "stubs.ll"))
	require.NoError(t, err)
	assert.Contains(t, string(ir), "declare void @main(ptr)")

	projects, err := filepath.Glob(filepath.Join(out, "cache", PROJECT_DIR, "*", "main.json"))
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		exit bool
		code int
	}{
		{"no files", nil, true, 0},
		{"help", []string{"-h"}, true, 0},
		{"unknown flag", []string{"-optimize", "a.xml"}, false, 2},
		{"no jobs", []string{"-jobs", "0", "a.xml"}, false, 2},
		{"files", []string{"a.xml", "b.xml"}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			opts, exit, err := parseArgs(tt.args, &out)
			assert.Equal(t, tt.exit, exit)
			if tt.code != 0 {
				require.Equal(t, tt.code, exitCode(t, err))
				return
			}
			require.NoError(t, err)
			if !exit {
				assert.Equal(t, tt.args, opts.files)
			}
		})
	}
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cfcc.hcl", `
linkage    = "external"
log_format = "json"
`)
	opts, _, err := parseArgs([]string{"-log-format", "TEXT", filepath.Join(dir, "a.xml")}, &bytes.Buffer{})
	require.NoError(t, err)

	cfg, err := opts.config(nil)
	require.NoError(t, err)
	assert.Equal(t, "external", cfg.Linkage)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestRunRejectsBadConfig(t *testing.T) {
	_, _, err := runCLI(t, nil, "-log-level", "loud", "a.xml")
	require.Equal(t, 2, exitCode(t, err))
}

func TestVersion(t *testing.T) {
	stdout, _, err := runCLI(t, nil, "-version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "cfcc dev")
}

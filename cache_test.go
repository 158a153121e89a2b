package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/plcfront/cfcc/model"
	"github.com/plcfront/cfcc/plcxml"
	x "github.com/plcfront/cfcc/plcxml/plcxmltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHashDir(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"0a1b2c3d", true},
		{"DEADBEEF", true},
		{"0a1b2c3", false},
		{"0a1b2c3g", false},
		{".lock", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, isHashDir(tt.name), tt.name)
	}
}

func readProject(t *testing.T, content string) *model.Project {
	t.Helper()
	project, errs := plcxml.Read(content)
	require.Empty(t, errs)
	return project
}

func TestCacheProject(t *testing.T) {
	ctx := context.Background()
	cacheDir := t.TempDir()
	content := x.Pou("main", "program", "PROGRAM main END_PROGRAM",
		x.InVariable(1, "a"), x.OutVariable(2, "b", 1))
	project := readProject(t, content)

	path, err := cacheProject(ctx, cacheDir, "dir/main.xml", []byte(content), project)
	require.NoError(t, err)
	require.Equal(t, "main.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded model.Project
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Pous, 1)
	require.Equal(t, "main", decoded.Pous[0].Name)

	// a hit leaves the entry alone
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
	again, err := cacheProject(ctx, cacheDir, "main.xml", []byte(content), project)
	require.NoError(t, err)
	require.Equal(t, path, again)
	data, err = os.ReadFile(again)
	require.NoError(t, err)
	require.Equal(t, "{}", string(data))
}

func TestCacheProjectRebuildsOnHashMismatch(t *testing.T) {
	ctx := context.Background()
	cacheDir := t.TempDir()
	content := x.Pou("main", "program", "PROGRAM main END_PROGRAM")
	project := readProject(t, content)

	path, err := cacheProject(ctx, cacheDir, "main.xml", []byte(content), project)
	require.NoError(t, err)
	hashFile := filepath.Join(filepath.Dir(path), HASH_FILE)
	require.NoError(t, os.WriteFile(hashFile, []byte("collision"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	_, err = cacheProject(ctx, cacheDir, "main.xml", []byte(content), project)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"main"`)
}

func TestCleanupOldProjects(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().Add(-30 * 24 * time.Hour)
	names := []string{"00000001", "00000002", "00000003", "00000004", "00000005", "00000006", "00000007"}
	for i, name := range names {
		p := filepath.Join(dir, name)
		require.NoError(t, os.Mkdir(p, 0755))
		mtime := old.Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(p, mtime, mtime))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "keepme"), 0755))

	cleanupOldProjects(context.Background(), dir, 5, 7*24*time.Hour)

	for i, name := range names {
		_, err := os.Stat(filepath.Join(dir, name))
		if i < 2 {
			assert.True(t, os.IsNotExist(err), "%s should be removed", name)
		} else {
			assert.NoError(t, err, "%s should be kept", name)
		}
	}
	_, err := os.Stat(filepath.Join(dir, "keepme"))
	assert.NoError(t, err)
}

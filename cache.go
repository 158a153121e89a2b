package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/plcfront/cfcc/internal/ctxlog"
	"github.com/plcfront/cfcc/model"
)

const (
	PROJECT_DIR = "projects"
	JSON_SUFFIX = ".json"
	HASH_FILE   = ".hash"
)

// isHashDir returns true if name is an 8-char hex string (matches shortHash format).
func isHashDir(name string) bool {
	if len(name) != 8 {
		return false
	}
	_, err := hex.DecodeString(name)
	return err == nil
}

// projectHash hashes the diagram source together with the tool version, so
// a release that changes the model layout does not reuse stale files.
// Returns short hash (8 chars for directory name) and full hash (for collision check).
func projectHash(content []byte) (shortHash, fullHash string) {
	h := sha256.New()
	h.Write([]byte(Version))
	h.Write(content)
	fullHash = hex.EncodeToString(h.Sum(nil))
	return fullHash[:8], fullHash
}

// cleanupOldProjects removes old project hash directories.
// Only deletes directories older than minAge AND keeps at least 'keep' most recent.
func cleanupOldProjects(ctx context.Context, projectDir string, keep int, minAge time.Duration) {
	entries, err := os.ReadDir(projectDir)
	if err != nil || len(entries) <= keep {
		return
	}

	type dirInfo struct {
		name  string
		mtime time.Time
	}
	var dirs []dirInfo
	for _, e := range entries {
		if e.IsDir() && isHashDir(e.Name()) {
			if info, err := e.Info(); err == nil {
				dirs = append(dirs, dirInfo{e.Name(), info.ModTime()})
			}
		}
	}
	if len(dirs) <= keep {
		return
	}

	// oldest first
	cutoff := time.Now().Add(-minAge)
	slices.SortFunc(dirs, func(a, b dirInfo) int { return a.mtime.Compare(b.mtime) })
	for i := 0; i < len(dirs)-keep; i++ {
		if dirs[i].mtime.Before(cutoff) {
			path := filepath.Join(projectDir, dirs[i].name)
			if err := os.RemoveAll(path); err != nil {
				ctxlog.FromContext(ctx).Warn("Failed to remove old project cache", "path", path, "error", err)
			}
		}
	}
}

// cacheProject stores the JSON form of project under cacheDir, keyed by the
// hash of the diagram source, and returns the path of the JSON file.
// A file lock keeps concurrent runs from seeing a half written entry.
func cacheProject(ctx context.Context, cacheDir, name string, content []byte, project *model.Project) (string, error) {
	logger := ctxlog.FromContext(ctx)
	projectDir := filepath.Join(cacheDir, PROJECT_DIR)
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		return "", fmt.Errorf("create project cache dir: %w", err)
	}

	lock := flock.New(filepath.Join(projectDir, ".lock"))
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("acquire project cache lock: %w", err)
	}
	defer lock.Unlock()

	shortHash, fullHash := projectHash(content)
	dir := filepath.Join(projectDir, shortHash)
	out := filepath.Join(dir, strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))+JSON_SUFFIX)
	hashFile := filepath.Join(dir, HASH_FILE)

	if stored, err := os.ReadFile(hashFile); err == nil {
		if string(stored) == fullHash {
			if _, err := os.Stat(out); err == nil {
				logger.Debug("Using cached project", "path", out)
				return out, nil
			}
		} else {
			logger.Warn("Project hash mismatch, rebuilding", "path", dir)
			os.RemoveAll(dir)
		}
	}

	cleanupOldProjects(ctx, projectDir, 5, 7*24*time.Hour)

	data, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode project %s: %w", name, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create project dir: %w", err)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return "", fmt.Errorf("write project %s: %w", out, err)
	}
	// written last, it marks the entry complete
	if err := os.WriteFile(hashFile, []byte(fullHash), 0644); err != nil {
		return "", fmt.Errorf("write hash file: %w", err)
	}
	logger.Debug("Cached project", "path", out)
	return out, nil
}

// Package config loads the optional cfcc.hcl build file.
//
// The file is plain HCL. An env object exposes the process environment to
// expressions:
//
//	linkage   = "external"
//	cache_dir = "${env.HOME}/.cache/plc"
//	stubs     = "build/stubs.ll"
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/plcfront/cfcc/ast"
	"github.com/zclconf/go-cty/cty"
)

// FileName is looked up next to the inputs when no -config flag is given.
const FileName = "cfcc.hcl"

type Config struct {
	Linkage     string `hcl:"linkage,optional"`
	Schema      string `hcl:"schema,optional"`
	Validate    bool   `hcl:"validate,optional"`
	EmitProject bool   `hcl:"emit_project,optional"`
	CacheDir    string `hcl:"cache_dir,optional"`
	LogLevel    string `hcl:"log_level,optional"`
	LogFormat   string `hcl:"log_format,optional"`
	Stubs       string `hcl:"stubs,optional"`
}

func Default() Config {
	return Config{
		Linkage:   "internal",
		CacheDir:  DefaultCacheDir(),
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// DefaultCacheDir returns CFCCACHE when set, else the per-user cache
// directory of the platform.
func DefaultCacheDir() string {
	if env := os.Getenv("CFCCACHE"); env != "" {
		return env
	}

	homeDir, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LocalAppData"); localAppData != "" {
			return filepath.Join(localAppData, "cfcc")
		}
		return filepath.Join(homeDir, "AppData", "Local", "cfcc")
	case "darwin":
		return filepath.Join(homeDir, "Library", "Caches", "cfcc")
	default:
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "cfcc")
		}
		return filepath.Join(homeDir, ".cache", "cfcc")
	}
}

// Load decodes path over the defaults. A missing file is not an error.
// environ has the form of os.Environ.
func Load(path string, environ []string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}
	diags = gohcl.DecodeBody(file.Body, evalContext(environ), &cfg)
	if diags.HasErrors() {
		return cfg, fmt.Errorf("failed to decode config file %s: %w", path, diags)
	}
	if err := cfg.Check(); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func evalContext(environ []string) *hcl.EvalContext {
	vars := map[string]cty.Value{}
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if ok && name != "" {
			vars[name] = cty.StringVal(value)
		}
	}
	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{Variables: map[string]cty.Value{"env": env}}
}

// Check rejects values the driver cannot act on.
func (c Config) Check() error {
	switch strings.ToLower(c.Linkage) {
	case "internal", "external":
	default:
		return fmt.Errorf("invalid linkage %q: must be 'internal' or 'external'", c.Linkage)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q: must be 'text' or 'json'", c.LogFormat)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q: must be 'debug', 'info', 'warn', or 'error'", c.LogLevel)
	}
	if c.Validate && c.Schema == "" {
		return errors.New("validate is set but no schema is given")
	}
	return nil
}

func (c Config) LinkageKind() ast.Linkage {
	if strings.EqualFold(c.Linkage, "external") {
		return ast.External
	}
	return ast.Internal
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/plcfront/cfcc/ast"
	"github.com/plcfront/cfcc/cfc"
	"github.com/plcfront/cfcc/compiler"
	"github.com/plcfront/cfcc/config"
	"github.com/plcfront/cfcc/desugar"
	"github.com/plcfront/cfcc/diagnostics"
	"github.com/plcfront/cfcc/internal/ctxlog"
	"github.com/plcfront/cfcc/plcxml"
	"golang.org/x/sync/errgroup"
	"tinygo.org/x/go-llvm"
)

// parsed is the outcome of one input file.
type parsed struct {
	src   cfc.SourceCode
	unit  *ast.CompilationUnit
	diags []diagnostics.Diagnostic
	err   error
}

// parseFiles parses files concurrently. All files share one id provider so
// node ids stay unique across the run. Results keep the order of files.
func parseFiles(ctx context.Context, files []string, linkage ast.Linkage, jobs int) ([]parsed, error) {
	logger := ctxlog.FromContext(ctx)
	ids := ast.NewIDProvider()
	results := make([]parsed, len(files))

	var g errgroup.Group
	g.SetLimit(jobs)
	for i, file := range files {
		g.Go(func() error {
			content, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			logger.Debug("Parsing file", "file", file)
			src := cfc.SourceCode{Name: file, Content: string(content)}
			unit, diags, err := cfc.Parse(src, linkage, ids.Clone())
			results[i] = parsed{src: src, unit: unit, diags: diags, err: err}
			return nil
		})
	}
	return results, g.Wait()
}

func printUnit(w io.Writer, unit *ast.CompilationUnit) {
	for _, pou := range unit.Pous {
		fmt.Fprintf(w, "%s\nEND_%s\n\n", pou, pou.Kind)
	}
	for _, impl := range unit.Implementations {
		fmt.Fprintf(w, "(* %s *)\n%s\n", impl.Name, impl)
	}
}

// writeStubs declares every POU of units in one LLVM module and writes its
// IR to path.
func writeStubs(ctx context.Context, path string, units []*ast.CompilationUnit) error {
	logger := ctxlog.FromContext(ctx)
	llctx := llvm.NewContext()
	defer llctx.Dispose()

	c := compiler.NewCompiler(llctx, filepath.Base(path))
	for _, unit := range units {
		c.Compile(unit)
	}
	for _, e := range c.Errors {
		logger.Error(e.Msg, "file", e.Token.Loc.File, "name", e.Token.Literal)
	}
	if len(c.Errors) > 0 {
		return fmt.Errorf("%d error(s) while declaring stubs", len(c.Errors))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create stub dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(c.GenerateIR()), 0644); err != nil {
		return fmt.Errorf("write stubs %s: %w", path, err)
	}
	logger.Info("Wrote LLVM stubs", "path", path)
	return nil
}

// post runs the optional per-file steps that need the source on disk.
func post(ctx context.Context, cfg config.Config, r parsed) {
	logger := ctxlog.FromContext(ctx)
	if cfg.Validate {
		for _, verr := range plcxml.Validate(r.src.Name, cfg.Schema) {
			logger.Warn(verr.Message, "file", verr.File, "line", verr.Line)
		}
	}
	if cfg.EmitProject {
		project, _ := plcxml.Read(r.src.Content)
		path, err := cacheProject(ctx, cfg.CacheDir, r.src.Name, []byte(r.src.Content), project)
		if err != nil {
			logger.Error("Failed to cache project", "file", r.src.Name, "error", err)
			return
		}
		logger.Info("Wrote project model", "file", r.src.Name, "path", path)
	}
}

func run(ctx context.Context, args []string, environ []string, stdout, stderr io.Writer) error {
	opts, exit, err := parseArgs(args, stderr)
	if err != nil || exit {
		return err
	}
	if opts.version {
		printVersion(stdout)
		return nil
	}

	cfg, err := opts.config(environ)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, stderr)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Configuration resolved", "linkage", cfg.Linkage, "cache_dir", cfg.CacheDir, "files", len(opts.files))

	results, err := parseFiles(ctx, opts.files, cfg.LinkageKind(), opts.jobs)
	if err != nil {
		return &ExitError{Code: 1, Message: err.Error()}
	}

	d := diagnostics.NewDiagnostician(logger)
	var units []*ast.CompilationUnit
	failed := 0
	for _, r := range results {
		d.RegisterFile(r.src.Name, r.src.Content)
		d.Handle(r.diags)
		if r.err != nil {
			logger.Error("Cannot translate file", "file", r.src.Name, "error", r.err)
			failed++
			continue
		}
		desugar.Simplify(r.unit)
		units = append(units, r.unit)
		post(ctx, cfg, r)
		printUnit(stdout, r.unit)
	}

	if cfg.Stubs != "" && failed == 0 && d.ErrorCount() == 0 {
		if err := writeStubs(ctx, cfg.Stubs, units); err != nil {
			return &ExitError{Code: 1, Message: err.Error()}
		}
	}
	if failed > 0 || d.ErrorCount() > 0 {
		return &ExitError{Code: 1, Message: fmt.Sprintf("%d error(s), %d warning(s)", d.ErrorCount()+failed, d.WarningCount())}
	}
	logger.Debug("Done", "files", len(units), "warnings", d.WarningCount())
	return nil
}

func main() {
	err := run(context.Background(), os.Args[1:], os.Environ(), os.Stdout, os.Stderr)
	if err == nil {
		return
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, exitErr.Message)
		os.Exit(exitErr.Code)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

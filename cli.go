package main

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/plcfront/cfcc/config"
)

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

type options struct {
	files      []string
	configPath string
	jobs       int
	version    bool

	linkage     string
	schema      string
	validate    bool
	emitProject bool
	cacheDir    string
	logLevel    string
	logFormat   string
	stubs       string

	// flags given on the command line; they win over the config file
	visited map[string]bool
}

// parseArgs processes command-line arguments. It returns the options, a
// boolean telling the caller to exit cleanly, or an *ExitError.
func parseArgs(args []string, output io.Writer) (*options, bool, error) {
	flagSet := flag.NewFlagSet("cfcc", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `
cfcc - front end for PLCopen XML CFC diagrams.

Usage:
  cfcc [options] FILE.xml...

Each file is read, its diagrams are turned into structured text statements
and the result is printed. Options override values from cfcc.hcl, which is
looked up next to the first file.

Options:
`)
		flagSet.PrintDefaults()
	}

	o := &options{visited: map[string]bool{}}
	flagSet.StringVar(&o.configPath, "config", "", "Path to the HCL config file.")
	flagSet.IntVar(&o.jobs, "jobs", runtime.NumCPU(), "Number of files parsed concurrently.")
	flagSet.BoolVar(&o.version, "version", false, "Print version information and exit.")
	flagSet.StringVar(&o.linkage, "linkage", "internal", "Linkage of the parsed POUs. Options: 'internal' or 'external'.")
	flagSet.StringVar(&o.schema, "schema", "", "XSD used by -validate.")
	flagSet.BoolVar(&o.validate, "validate", false, "Check every input against -schema.")
	flagSet.BoolVar(&o.emitProject, "emit-project", false, "Write the diagram model of every input as JSON into the cache.")
	flagSet.StringVar(&o.cacheDir, "cache-dir", "", "Cache directory. Defaults to $CFCCACHE or the user cache dir.")
	flagSet.StringVar(&o.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flagSet.StringVar(&o.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flagSet.StringVar(&o.stubs, "stubs", "", "Write LLVM declarations of every POU to this file.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	flagSet.Visit(func(f *flag.Flag) { o.visited[f.Name] = true })

	if o.version {
		return o, false, nil
	}
	o.files = flagSet.Args()
	if len(o.files) == 0 {
		flagSet.Usage()
		return nil, true, nil
	}
	if o.jobs < 1 {
		return nil, false, &ExitError{Code: 2, Message: "invalid jobs: must be at least 1"}
	}
	return o, false, nil
}

// config loads the config file and applies the flags given on top.
func (o *options) config(environ []string) (config.Config, error) {
	path := o.configPath
	if path == "" {
		path = filepath.Join(filepath.Dir(o.files[0]), config.FileName)
	}
	cfg, err := config.Load(path, environ)
	if err != nil {
		return cfg, err
	}

	for name := range o.visited {
		switch name {
		case "linkage":
			cfg.Linkage = o.linkage
		case "schema":
			cfg.Schema = o.schema
		case "validate":
			cfg.Validate = o.validate
		case "emit-project":
			cfg.EmitProject = o.emitProject
		case "cache-dir":
			cfg.CacheDir = o.cacheDir
		case "log-level":
			cfg.LogLevel = o.logLevel
		case "log-format":
			cfg.LogFormat = o.logFormat
		case "stubs":
			cfg.Stubs = o.stubs
		}
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	return cfg, cfg.Check()
}

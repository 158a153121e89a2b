package diagnostics

import (
	"context"
	"log/slog"
	"strings"

	"github.com/plcfront/cfcc/token"
)

// Diagnostician renders diagnostics as structured log records. Files are
// registered first so text ranges can be reported as line and column.
type Diagnostician struct {
	logger   *slog.Logger
	files    map[string]string
	errors   int
	warnings int
}

func NewDiagnostician(logger *slog.Logger) *Diagnostician {
	return &Diagnostician{logger: logger, files: map[string]string{}}
}

func (d *Diagnostician) RegisterFile(name, content string) {
	d.files[name] = content
}

func (d *Diagnostician) Handle(diags []Diagnostic) {
	ctx := context.Background()
	for _, diag := range diags {
		level := slog.LevelError
		switch diag.Severity {
		case Error:
			d.errors++
		case Warning:
			d.warnings++
			level = slog.LevelWarn
		default:
			level = slog.LevelInfo
		}
		d.logger.LogAttrs(ctx, level, diag.Message, d.attrs(diag)...)
	}
}

func (d *Diagnostician) attrs(diag Diagnostic) []slog.Attr {
	loc := diag.Location
	attrs := []slog.Attr{
		slog.String("code", string(diag.Code)),
		slog.String("file", loc.File),
	}
	switch loc.Kind {
	case token.Block:
		attrs = append(attrs, slog.Int("local_id", loc.LocalID))
		if loc.ExecutionOrder != nil {
			attrs = append(attrs, slog.Int("execution_order", *loc.ExecutionOrder))
		}
	case token.TextRange:
		if line, col, ok := d.position(loc.File, loc.Span.Start); ok {
			attrs = append(attrs, slog.Int("line", line), slog.Int("column", col))
		}
	}
	return attrs
}

// position maps a byte offset in a registered file to a 1-based line and
// column.
func (d *Diagnostician) position(file string, offset int) (int, int, bool) {
	content, ok := d.files[file]
	if !ok || offset > len(content) {
		return 0, 0, false
	}
	before := content[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndexByte(before, '\n')
	return line, col, true
}

func (d *Diagnostician) ErrorCount() int   { return d.errors }
func (d *Diagnostician) WarningCount() int { return d.warnings }

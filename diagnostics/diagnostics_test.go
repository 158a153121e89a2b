package diagnostics

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/plcfront/cfcc/model"
	"github.com/plcfront/cfcc/token"
	"github.com/stretchr/testify/require"
)

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		rec := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestHandleWritesStructuredRecords(t *testing.T) {
	var buf bytes.Buffer
	d := NewDiagnostician(slog.New(slog.NewJSONHandler(&buf, nil)))
	d.RegisterFile("main.st", "PROGRAM main\nVAR x : ; END_VAR")

	order := 2
	locs := token.NewLocationFactory("main.st")
	d.Handle([]Diagnostic{
		New(DanglingReference, locs.Block(7, &order), "reference to unknown local id %d", 99),
		New(SyntaxError, locs.Range(21, 22), "expected a data type"),
		{Code: Unsupported, Severity: Warning, Message: "jump markers are not supported", Location: locs.Block(3, nil)},
	})

	recs := records(t, &buf)
	require.Len(t, recs, 3)

	require.Equal(t, "ERROR", recs[0]["level"])
	require.Equal(t, "reference to unknown local id 99", recs[0]["msg"])
	require.Equal(t, "E004", recs[0]["code"])
	require.EqualValues(t, 7, recs[0]["local_id"])
	require.EqualValues(t, 2, recs[0]["execution_order"])

	require.EqualValues(t, 2, recs[1]["line"])
	require.EqualValues(t, 9, recs[1]["column"])

	require.Equal(t, "WARN", recs[2]["level"])
	require.NotContains(t, recs[2], "execution_order")

	require.Equal(t, 2, d.ErrorCount())
	require.Equal(t, 1, d.WarningCount())
}

func TestUnregisteredFileHasNoPosition(t *testing.T) {
	var buf bytes.Buffer
	d := NewDiagnostician(slog.New(slog.NewJSONHandler(&buf, nil)))
	d.Handle([]Diagnostic{New(SyntaxError, token.NewLocationFactory("x.st").Range(0, 1), "bad")})

	recs := records(t, &buf)
	require.Len(t, recs, 1)
	require.NotContains(t, recs[0], "line")
}

func TestFromReaderError(t *testing.T) {
	loc := token.NewLocationFactory("a.xml").FileOnly()
	tests := []struct {
		err  *model.Error
		code Code
	}{
		{model.UnexpectedEndOfFile(), ReaderFailure},
		{model.Encoding("invalid UTF-8"), ReaderFailure},
		{model.ReadEvent("boom"), ReaderFailure},
		{model.MissingAttribute("localId"), MissingAttribute},
		{model.UnexpectedElement("foo"), UnexpectedElement},
	}
	for _, tt := range tests {
		d := FromReaderError(tt.err, loc)
		require.Equal(t, tt.code, d.Code, tt.err.Error())
		require.Equal(t, loc, d.Location)
	}

	e := model.MissingAttribute("localId")
	e.Pou, e.Line = "main", 4
	d := FromReaderError(e, loc)
	require.Equal(t, "expected attribute localId but found none (in pou main) at line 4", d.Message)
}

func TestJoin(t *testing.T) {
	loc := token.NewLocationFactory("a.xml").FileOnly()
	require.NoError(t, Join(nil))
	require.False(t, HasErrors([]Diagnostic{{Severity: Warning}}))

	diags := []Diagnostic{New(Cycle, loc, "cycle"), {Severity: Warning, Message: "w"}}
	require.True(t, HasErrors(diags))
	err := Join(diags)
	require.Error(t, err)
	require.Equal(t, "a.xml [E005]: cycle", err.Error())
}

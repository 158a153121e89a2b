package plcxml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/plcfront/cfcc/model"
	x "github.com/plcfront/cfcc/plcxml/plcxmltest"
	"github.com/stretchr/testify/require"
)

const addDecl = `FUNCTION myAdd : DINT
VAR_INPUT
    in1, in2 : DINT;
END_VAR`

func addPou() *x.Node {
	return x.PouElem("myAdd", "function", addDecl,
		x.InVariable(1, "in1"),
		x.InVariable(2, "in2"),
		x.Block(3, "ADD", "", x.Input("a", 1), x.Input("b", 2), x.Output("OUT")),
		x.OutVariable(4, "myAdd", 3),
	)
}

func TestReadPou(t *testing.T) {
	project, errs := Read(x.Document(addPou()))
	require.Empty(t, errs)
	require.Len(t, project.Pous, 1)

	pou := project.Pous[0]
	require.Equal(t, "myAdd", pou.Name)
	require.Equal(t, model.Function, pou.Kind)
	require.Equal(t, addDecl, pou.Declaration)

	body := pou.Body
	require.Len(t, body.Variables, 3)
	require.Len(t, body.Blocks, 1)

	in1 := body.Variables[0]
	require.Equal(t, model.Input, in1.Kind)
	require.Equal(t, 1, in1.LocalID)
	require.Equal(t, "in1", in1.Expression)
	require.Nil(t, in1.RefLocalID)

	out := body.Variables[2]
	require.Equal(t, model.Output, out.Kind)
	require.Equal(t, "myAdd", out.Expression)
	require.Equal(t, 3, *out.RefLocalID)

	block := body.Blocks[0]
	require.Equal(t, 3, block.LocalID)
	require.Equal(t, "ADD", block.TypeName)
	require.False(t, block.Stateful())
	require.Nil(t, block.ExecutionOrderID)
	require.Len(t, block.Variables, 3)
	require.Equal(t, "a", block.Variables[0].FormalParameter)
	require.Equal(t, 1, *block.Variables[0].RefLocalID)
	require.Equal(t, model.Output, block.Variables[2].Kind)
	require.Nil(t, block.Variables[2].RefLocalID)
}

func TestReadProject(t *testing.T) {
	second := x.PouElem("main", "program", "PROGRAM main\nVAR x : INT; END_VAR",
		x.InVariable(1, "5"),
		x.OutVariable(2, "x", 1).Order(0),
	)
	project, errs := Read(x.Project(addPou(), second))
	require.Empty(t, errs)
	require.Len(t, project.Pous, 2)
	require.Equal(t, "main", project.Pous[1].Name)
	require.Equal(t, model.Program, project.Pous[1].Kind)
	require.Equal(t, 0, *project.Pous[1].Body.Variables[1].ExecutionOrderID)
}

func TestReadBlockAttributes(t *testing.T) {
	doc := x.Pou("main", "program", "PROGRAM main",
		x.InVariable(1, "start"),
		x.Block(2, "TON", "timer",
			x.Input("IN", 1).Negated(),
			x.Input("PT", -1),
			x.Output("Q"),
			x.Output("ET"),
		).Order(3),
		x.Block(4, "MOVE", "", x.InputFrom("IN", 2, "ET"), x.Output("OUT")),
	)
	project, errs := Read(doc)
	require.Empty(t, errs)

	blocks := project.Pous[0].Body.Blocks
	timer := blocks[0]
	require.True(t, timer.Stateful())
	require.Equal(t, "timer", timer.InstanceName)
	require.Equal(t, 3, *timer.ExecutionOrderID)
	require.True(t, timer.Variables[0].Negated)
	require.Nil(t, timer.Variables[1].RefLocalID)

	move := blocks[1].Variables[0]
	require.Equal(t, 2, *move.RefLocalID)
	require.Equal(t, "ET", move.RefFormalParameter)
}

func TestReadControlsAndConnectors(t *testing.T) {
	doc := x.Pou("main", "program", "PROGRAM main",
		x.InVariable(1, "done"),
		x.Return(2, 1).Negated(),
		x.Return(3, -1),
		x.Jump(4, "next", 1),
		x.Label(5, "next"),
		x.Connector(6, "wire", 1),
		x.Continuation(7, "wire"),
	)
	project, errs := Read(doc)
	require.Empty(t, errs)

	body := project.Pous[0].Body
	require.Len(t, body.Controls, 4)
	require.Equal(t, model.Return, body.Controls[0].Kind)
	require.True(t, body.Controls[0].Negated)
	require.Equal(t, 1, *body.Controls[0].RefLocalID)
	require.Nil(t, body.Controls[1].RefLocalID)
	require.Equal(t, model.Jump, body.Controls[2].Kind)
	require.Equal(t, "next", body.Controls[2].Name)
	require.Equal(t, model.Label, body.Controls[3].Kind)

	require.Len(t, body.Connectors, 2)
	require.Equal(t, model.Sink, body.Connectors[0].Kind)
	require.Equal(t, 1, *body.Connectors[0].RefLocalID)
	require.Equal(t, model.Source, body.Connectors[1].Kind)
	require.Equal(t, "wire", body.Connectors[1].Name)
}

func TestReadActions(t *testing.T) {
	pou := x.PouElem("main", "program", "PROGRAM main", x.InVariable(1, "a"))
	pou.Child(x.Actions(
		x.Action("reset", x.InVariable(1, "0"), x.OutVariable(2, "a", 1)),
	))
	project, errs := Read(x.Document(pou))
	require.Empty(t, errs)
	require.Len(t, project.Pous[0].Actions, 1)

	action := project.Pous[0].Actions[0]
	require.Equal(t, "reset", action.Name)
	require.Len(t, action.Body.Variables, 2)
}

func TestReadPlainTextInterface(t *testing.T) {
	pou := x.Elem("pou", "name", "fb", "pouType", "functionBlock").Child(
		x.Elem("interface"),
		x.Body(),
		x.Elem("addData").Child(
			x.Elem("data", "name", "http://www.3s-software.com/plcopenxml/interfaceasplaintext").Child(
				x.Elem("InterfaceAsPlainText").Child(x.Elem("xhtml").Text("FUNCTION_BLOCK fb\nVAR_INPUT a : BOOL; END_VAR")),
			),
		),
	)
	project, errs := Read(x.Document(pou))
	require.Empty(t, errs)
	require.Equal(t, "FUNCTION_BLOCK fb\nVAR_INPUT a : BOOL; END_VAR", project.Pous[0].Declaration)
}

func TestMissingLocalIDIsReported(t *testing.T) {
	doc := x.Pou("myFunction", "function", "FUNCTION myFunction : DINT",
		x.InVariable(1, "a").Without("localId"),
		x.OutVariable(2, "b", 1),
	)
	project, errs := Read(doc)
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], model.MissingAttribute("localId"))
	require.Equal(t, "myFunction", errs[0].Pou)
	require.Empty(t, project.Pous)
}

func TestMissingExpressionIsReported(t *testing.T) {
	doc := x.Pou("f", "function", "FUNCTION f : DINT",
		x.Elem("outVariable", "localId", "2"),
	)
	_, errs := Read(doc)
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], model.MissingAttribute("expression"))
}

func TestDuplicateAttributeIsMissing(t *testing.T) {
	doc := x.Pou("f", "function", "FUNCTION f : DINT",
		x.InVariable(1, "a").Attr("negated", "true").Attr("negated", "false"),
	)
	_, errs := Read(doc)
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], model.MissingAttribute("negated"))
}

func TestUnexpectedPouType(t *testing.T) {
	doc := x.Pou("conditional_return", "UNEXPECTED_ELEMENT", "FUNCTION_BLOCK conditional_return")
	_, errs := Read(doc)
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], model.UnexpectedElement("UNEXPECTED_ELEMENT"))
}

func TestNonIntegerLocalID(t *testing.T) {
	doc := x.Pou("f", "function", "FUNCTION f : DINT",
		x.InVariable(1, "a").Without("localId").Attr("localId", "not an int"),
	)
	_, errs := Read(doc)
	require.Len(t, errs, 1)
	require.Equal(t, model.ErrUnexpectedElement, errs[0].Kind)
	require.Contains(t, errs[0].Detail, "localId")
}

func TestBrokenPouDoesNotStopSiblings(t *testing.T) {
	broken := x.PouElem("broken", "function", "FUNCTION broken : INT",
		x.Block(1, "ADD", "").Without("typeName"),
		x.InVariable(2, "a"),
	)
	good := x.PouElem("good", "program", "PROGRAM good", x.InVariable(1, "a"))
	project, errs := Read(x.Project(broken, good))

	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], model.MissingAttribute("typeName"))
	require.Equal(t, "broken", errs[0].Pou)
	require.Len(t, project.Pous, 1)
	require.Equal(t, "good", project.Pous[0].Name)
}

func TestTruncatedInputTerminates(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unclosed element", `<?xml version="1.0" encoding="UTF-8"?>
<pou xmlns="http://www.plcopen.org/xml/tc6_0201" name="pass_through" pouType="functionBlock">`},
		{"unclosed tag", `<?xml version="1.0" encoding="UTF-8"?>
<pou xmlns="http://www.plcopen.org/xml/tc6_0201" name="pass_through" pouType="functionBlock"`},
		{"truncated body", x.Pou("f", "function", "FUNCTION f : INT", x.InVariable(1, "a"))[:200]},
		{"empty", ""},
		{"header only", `<?xml version="1.0" encoding="UTF-8"?>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project, errs := Read(tt.content)
			require.NotNil(t, project)
			require.Len(t, errs, 1)
			kind := errs[0].Kind
			require.True(t, kind == model.ErrUnexpectedEndOfFile || kind == model.ErrReadEvent, "got %s", kind)
		})
	}
}

func TestMalformedInputReportsReadEvent(t *testing.T) {
	_, errs := Read(`<pou name="a" pouType="program"><body></pou>`)
	require.Len(t, errs, 1)
	require.Equal(t, model.ErrReadEvent, errs[0].Kind)
	require.Equal(t, 1, errs[0].Line)
}

func TestInvalidUTF8ReportsEncoding(t *testing.T) {
	_, errs := Read("<pou name=\"a\xff\" pouType=\"program\"/>")
	require.Len(t, errs, 1)
	require.Equal(t, model.ErrEncoding, errs[0].Kind)
}

func TestUnknownRoot(t *testing.T) {
	_, errs := Read(`<library/>`)
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], model.UnexpectedElement("library"))
}

func TestUnknownElementsAreSkipped(t *testing.T) {
	pou := x.PouElem("p", "program", "PROGRAM p",
		x.Elem("comment", "localId", "9").Child(x.Elem("content").Text("note")),
		x.InVariable(1, "a"),
		x.Elem("vendorElement").Child(x.Elem("nested").Child(x.Elem("deeper"))),
	)
	pou.Child(x.Elem("documentation").Text("docs"))
	project, errs := Read(x.Document(pou))
	require.Empty(t, errs)
	require.Len(t, project.Pous[0].Body.Variables, 1)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "tc6.xsd")
	require.NoError(t, os.WriteFile(schema, []byte(`<?xml version="1.0"?>
<xsd:schema xmlns:xsd="http://www.w3.org/2001/XMLSchema" targetNamespace="`+x.Namespace+`"/>`), 0o644))

	good := filepath.Join(dir, "good.xml")
	require.NoError(t, os.WriteFile(good, []byte(x.Document(addPou())), 0o644))
	require.Empty(t, Validate(good, schema))

	foreign := filepath.Join(dir, "foreign.xml")
	require.NoError(t, os.WriteFile(foreign, []byte(`<pou xmlns="urn:other" name="a" pouType="program"/>`), 0o644))
	errs := Validate(foreign, schema)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Message, "urn:other")

	broken := filepath.Join(dir, "broken.xml")
	require.NoError(t, os.WriteFile(broken, []byte("<pou>\n<body>\n</pou>"), 0o644))
	errs = Validate(broken, schema)
	require.Len(t, errs, 1)
	require.Equal(t, broken, errs[0].File)
	require.Equal(t, 3, errs[0].Line)

	errs = Validate(good, filepath.Join(dir, "missing.xsd"))
	require.Len(t, errs, 1)
	require.True(t, strings.HasPrefix(errs[0].Message, "cannot read schema"))
}

package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePouKind(t *testing.T) {
	tests := []struct {
		input    string
		expected PouKind
	}{
		{"program", Program},
		{"function", Function},
		{"functionBlock", FunctionBlock},
	}
	for _, tt := range tests {
		k, err := ParsePouKind(tt.input)
		require.NoError(t, err)
		require.Equal(t, tt.expected, k)
	}

	_, err := ParsePouKind("class")
	require.ErrorIs(t, err, UnexpectedElement("class"))
}

func TestVariableKindFromTag(t *testing.T) {
	for tag, want := range map[string]VariableKind{
		"inputVariables":  Input,
		"inVariable":      Input,
		"outputVariables": Output,
		"outVariable":     Output,
		"inOutVariables":  InOut,
		"inOutVariable":   InOut,
	} {
		k, err := VariableKindFromTag(tag)
		require.NoError(t, err, tag)
		require.Equal(t, want, k, tag)
	}

	_, err := VariableKindFromTag("block")
	require.Error(t, err)
	require.Equal(t, "unexpected element block", err.Error())
}

func TestErrorIs(t *testing.T) {
	err := error(&Error{Kind: ErrMissingAttribute, Detail: "localId", Line: 3})
	require.True(t, errors.Is(err, MissingAttribute("localId")))
	require.True(t, errors.Is(err, &Error{Kind: ErrMissingAttribute}))
	require.False(t, errors.Is(err, MissingAttribute("typeName")))
	require.False(t, errors.Is(err, UnexpectedEndOfFile()))
	require.Equal(t, "expected attribute localId but found none", err.Error())
}

func TestBlockPorts(t *testing.T) {
	b := &Block{
		LocalID:  1,
		TypeName: "TON",
		Variables: []*BlockVariable{
			{Kind: Input, FormalParameter: "IN"},
			{Kind: Output, FormalParameter: "Q"},
			{Kind: Output, FormalParameter: "ET"},
		},
	}
	require.False(t, b.Stateful())
	require.Equal(t, "Q", b.FirstOutput().FormalParameter)
	require.Equal(t, "ET", b.Port(Output, "ET").FormalParameter)
	require.Nil(t, b.Port(Input, "ET"))
}

func TestProjectJSON(t *testing.T) {
	ref := 1
	p := &Project{Pous: []*Pou{{
		Name: "main",
		Kind: FunctionBlock,
		Body: Body{
			Variables: []*FunctionBlockVariable{{Kind: Output, LocalID: 2, Expression: "x", RefLocalID: &ref}},
		},
	}}}

	out, err := json.Marshal(p)
	require.NoError(t, err)
	require.JSONEq(t, `{"pous":[{"name":"main","kind":"functionBlock","body":{
		"variables":[{"kind":"output","localId":2,"expression":"x","refLocalId":1}]}}]}`, string(out))

	var back Project
	require.NoError(t, json.Unmarshal(out, &back))
	require.Equal(t, FunctionBlock, back.Pous[0].Kind)
	require.Equal(t, Output, back.Pous[0].Body.Variables[0].Kind)
}

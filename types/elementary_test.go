package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name  string
		class Class
		width uint32
	}{
		{"BOOL", Bool, 1},
		{"dint", Signed, 32},
		{"Ulint", Unsigned, 64},
		{"REAL", Float, 32},
		{"lreal", Float, 64},
		{"TIME", Duration, 64},
		{"WSTRING", String, 0},
	}
	for _, tt := range tests {
		got, ok := Lookup(tt.name)
		require.True(t, ok, tt.name)
		require.Equal(t, tt.class, got.Class, tt.name)
		require.Equal(t, tt.width, got.Width, tt.name)
	}

	_, ok := Lookup("TON")
	require.False(t, ok)
	require.False(t, IsElementary("myStruct"))
	require.True(t, IsElementary("word"))
}

func TestNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, n := range Names() {
		require.False(t, seen[n], n)
		seen[n] = true
	}
	require.Contains(t, Names(), "DATE_AND_TIME")
}

package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpand_AppendsSynonyms(t *testing.T) {
	expanded := Expand("where is the mensa")
	require.True(t, strings.HasPrefix(expanded, "where is the mensa"))
	require.Contains(t, expanded, "cafeteria")
	require.Contains(t, expanded, "location")
}

func TestExpand_UnknownTokensPassThrough(t *testing.T) {
	require.Equal(t, "quantum chromodynamics", Expand("quantum chromodynamics"))
	require.Equal(t, "", Expand(""))
	require.Equal(t, "?!", Expand("?!"))
}

func TestExpand_DoesNotDuplicateTokens(t *testing.T) {
	expanded := Expand("mensa cafeteria food")
	seen := map[string]int{}
	for _, tok := range strings.Fields(expanded) {
		seen[tok]++
	}
	for tok, count := range seen {
		require.Equal(t, 1, count, "token %q appears %d times", tok, count)
	}
}

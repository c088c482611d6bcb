package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ayaan-rulhania/thor-acquisition/pkg/types"
)

func TestStripPromotionalRemovesLeadingAndTrailingCTA(t *testing.T) {
	out := StripPromotional("Click here to learn everything about quantum computing to learn more.")
	require.NotContains(t, out, "Click here")
	require.NotContains(t, out, "to learn more")
}

func TestStripPromotionalCapitalizesFirstLetter(t *testing.T) {
	out := StripPromotional("quantum computing uses qubits.")
	require.Equal(t, "Quantum computing uses qubits.", out)
}

func TestStripEncyclopediaArtifactsRemovesCitations(t *testing.T) {
	out := StripEncyclopediaArtifacts("Water boils at 100C[1] under standard pressure[citation needed].")
	require.NotContains(t, out, "[1]")
	require.NotContains(t, out, "[citation needed]")
}

func TestAcceptableRejectsShortAndGenericText(t *testing.T) {
	require.False(t, Acceptable("too short"))
	require.False(t, Acceptable("Official site of the product with a very long description here"))
	require.True(t, Acceptable("Goroutines are lightweight threads managed by the Go runtime scheduler."))
}

func TestAcceptableRejectsPromotionalVocabularyBuriedInLongBody(t *testing.T) {
	// Long enough to clear minContentChars and doesn't open with a generic
	// opener, but promotional phrasing dominates the middle and end.
	buried := "Goroutines are lightweight threads managed by the Go runtime scheduler for building " +
		"highly concurrent programs with channels and select statements used widely across " +
		"production systems today. Sign up now, subscribe today, buy now for an exclusive offer, " +
		"and don't miss out on this limited time discount before checkout ends soon."
	require.False(t, Acceptable(buried))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	input := "Click here to learn everything about Go — subscribe now!"
	once := StripPromotional(input)
	twice := StripPromotional(once)
	require.Equal(t, once, twice)
}

func TestFingerprintStableAndCaseInsensitive(t *testing.T) {
	a := Fingerprint("Goroutines", "A goroutine is a lightweight thread.", types.AdapterEncyclopedia)
	b := Fingerprint("  goroutines  ", "a GOROUTINE is a lightweight thread.", types.AdapterEncyclopedia)
	require.Equal(t, a, b)

	c := Fingerprint("Goroutines", "A goroutine is a lightweight thread.", types.AdapterEngineA)
	require.NotEqual(t, a, c)
}

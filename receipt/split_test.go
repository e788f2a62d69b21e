package receipt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitNameShort(t *testing.T) {
	assert.Equal(t, []string{"Paine alba"}, SplitName("Paine alba", 30, 2))
}

func TestSplitNameChunks(t *testing.T) {
	name := strings.Repeat("a", 30) + strings.Repeat("b", 30) + strings.Repeat("c", 10)
	got := SplitName(name, 30, 3)
	assert.Equal(t, []string{
		strings.Repeat("a", 30),
		strings.Repeat("b", 30),
		strings.Repeat("c", 10),
	}, got)
}

func TestSplitNameTruncatesToMaxLines(t *testing.T) {
	name := strings.Repeat("a", 30) + strings.Repeat("b", 30) + strings.Repeat("c", 10)
	got := SplitName(name, 30, 2)
	assert.Equal(t, []string{
		strings.Repeat("a", 30),
		strings.Repeat("b", 30),
	}, got)
}

func TestSplitNameWidthFloor(t *testing.T) {
	name := strings.Repeat("x", 40)
	// Width 10 is below the floor, so splitting happens at 30.
	got := SplitName(name, 10, 5)
	assert.Equal(t, []string{strings.Repeat("x", 30), strings.Repeat("x", 10)}, got)
}

func TestSplitNameMaxLinesFloor(t *testing.T) {
	name := strings.Repeat("x", 40)
	got := SplitName(name, 30, 0)
	assert.Equal(t, []string{strings.Repeat("x", 30)}, got)
}

func TestSplitNameEmpty(t *testing.T) {
	assert.Equal(t, []string{""}, SplitName("", 30, 2))
}

func TestSplitNameCountsRunes(t *testing.T) {
	name := strings.Repeat("ă", 35)
	got := SplitName(name, 30, 2)
	assert.Equal(t, []string{strings.Repeat("ă", 30), strings.Repeat("ă", 5)}, got)
}

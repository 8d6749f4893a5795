package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cat, actual := Classify("CS101", "CS101", false)
	assert.Equal(t, CategoryNormal, cat)
	require.NotNil(t, actual)
	assert.Equal(t, "CS101", *actual)

	cat, actual = Classify("CS101", "CS202", false)
	assert.Equal(t, CategorySwap, cat)
	require.NotNil(t, actual)
	assert.Equal(t, "CS202", *actual)

	for _, selected := range []string{"CS101", "CS202", ""} {
		cat, actual = Classify("CS101", selected, true)
		assert.Equal(t, CategoryFree, cat)
		assert.Nil(t, actual)
	}
}

func TestCategoryDeviates(t *testing.T) {
	assert.False(t, CategoryNormal.Deviates())
	assert.True(t, CategorySwap.Deviates())
	assert.True(t, CategoryFree.Deviates())
}

func TestParseStatus(t *testing.T) {
	st, ok := ParseStatus(" Late ")
	assert.True(t, ok)
	assert.Equal(t, StatusLate, st)

	_, ok = ParseStatus("unmarked")
	assert.False(t, ok)
}

func TestSwapReason(t *testing.T) {
	assert.Equal(t, "Course changed from CS101 to CS202", swapReason("CS101", "CS202"))
}

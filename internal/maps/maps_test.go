package maps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultVersion(t *testing.T) {
	v, err := DefaultVersion("ChernarusPlus-Top")
	require.NoError(t, err)
	assert.Equal(t, "1.26.0", v)

	v, err = DefaultVersion("Sakhal-Sat")
	require.NoError(t, err)
	assert.Equal(t, "1.3.0", v)

	_, err = DefaultVersion("Atlantis")
	assert.Error(t, err)
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("Livonia-Top"))
	assert.False(t, Known("livonia-top")) // names are case sensitive
}

func TestVariantsSorted(t *testing.T) {
	variants := Variants()
	require.Len(t, variants, 6)

	for i := 1; i < len(variants); i++ {
		assert.Less(t, variants[i-1].Name, variants[i].Name)
	}
}

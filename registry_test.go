package talloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreateRejectsDuplicateLabels(t *testing.T) {
	r := NewRegistry()

	_, err := r.Create("widgets", 64)
	require.NoError(t, err)

	_, err = r.Create("widgets", 128)
	assert.Error(t, err, "creating a second pool under the same label should fail")
}

func TestRegistryLookupIsNormalizationInsensitive(t *testing.T) {
	r := NewRegistry()

	created, err := r.Create("café", 64)
	require.NoError(t, err)

	// The decomposed spelling (combining accent) must resolve to the same
	// entry as the precomposed one used at creation time.
	decomposedLabel := "cafe" + "́"
	found, ok := r.Get(decomposedLabel)
	require.True(t, ok, "Get should find the pool regardless of normalization form")
	assert.Equal(t, created.ID, found.ID)
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	_, err := r.Create("widgets", 64)
	require.NoError(t, err)

	assert.True(t, r.Remove("widgets"))
	assert.False(t, r.Remove("widgets"), "removing an already-removed label should report false")

	_, ok := r.Get("widgets")
	assert.False(t, ok)
}

func TestRegistryLabelsAreSorted(t *testing.T) {
	r := NewRegistry()
	for _, l := range []string{"zeta", "alpha", "mid"} {
		_, err := r.Create(l, 64)
		require.NoError(t, err)
	}

	got := r.Labels()
	want := []string{"alpha", "mid", "zeta"}
	assert.Equal(t, want, got)
}

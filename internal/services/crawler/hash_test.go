package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/quaestor/internal/models"
)

func TestHashLinksEmptyAndNilAgree(t *testing.T) {
	nilHash, err := HashLinks(nil)
	require.NoError(t, err)
	emptyHash, err := HashLinks([]models.ExtractedLink{})
	require.NoError(t, err)

	assert.Equal(t, nilHash, emptyHash)
	assert.Len(t, nilHash, 64)
}

func TestHashLinksIsDeterministic(t *testing.T) {
	links := []models.ExtractedLink{
		{URL: "https://example.com/a", Text: "A"},
		{URL: "https://example.com/b", Text: "B"},
	}

	first, err := HashLinks(links)
	require.NoError(t, err)
	second, err := HashLinks(links)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestHashLinksSensitivity(t *testing.T) {
	base := []models.ExtractedLink{
		{URL: "https://example.com/a", Text: "A"},
		{URL: "https://example.com/b", Text: "B"},
	}
	baseHash, err := HashLinks(base)
	require.NoError(t, err)

	reordered := []models.ExtractedLink{base[1], base[0]}
	reorderedHash, err := HashLinks(reordered)
	require.NoError(t, err)
	assert.NotEqual(t, baseHash, reorderedHash, "order change must change the hash")

	textChanged := []models.ExtractedLink{
		{URL: "https://example.com/a", Text: "A"},
		{URL: "https://example.com/b", Text: "B2"},
	}
	textHash, err := HashLinks(textChanged)
	require.NoError(t, err)
	assert.NotEqual(t, baseHash, textHash, "text change must change the hash")
}

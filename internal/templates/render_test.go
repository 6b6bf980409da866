package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderKudosEmail(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.Render("kudos_email", map[string]any{
		"subject":   "💚 New Kudos from alice",
		"fromUser":  "alice",
		"category":  "Code & Engineering",
		"message":   "thanks for the review!",
		"permalink": "https://kudos.example.org/kudo/abc123",
		"shareUrl":  "https://kudos.example.org/kudo/abc123",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "New Kudos from alice")
	assert.Contains(t, out, "Code &amp; Engineering")
	assert.Contains(t, out, "thanks for the review!")
	assert.Contains(t, out, `href="https://kudos.example.org/kudo/abc123"`)
	assert.Contains(t, out, "Kudos Portal", "content is wrapped in the base layout")
}

func TestRenderBadgeEmailOmitsEmptyOptionalBlocks(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.Render("badge_email", map[string]any{
		"subject":    "🏅 badge",
		"username":   "bob",
		"badgeTitle": "Infrastructure Hero",
		"permalink":  "https://kudos.example.org/badge/hero",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "Infrastructure Hero")
	assert.NotContains(t, out, "<img", "no picture block without badgePicture")
}

func TestRenderUnknownTemplate(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	_, err = r.Render("digest_email", nil)
	assert.Error(t, err)
}

func TestRenderEscapesUserContent(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.Render("kudos_email", map[string]any{
		"fromUser":  "<script>alert(1)</script>",
		"category":  "Code",
		"permalink": "https://x/kudo/a",
	})
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>alert(1)</script>")
}

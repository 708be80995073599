package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderVideo(t *testing.T) {
	fragment := RenderVideo("https://x/v.mp4", "abc123")
	require.NotNil(t, fragment)
	assert.Equal(t, "abc123", fragment.SessionID)
	assert.Equal(t, VideoName, fragment.Name)
	assert.Equal(t,
		`<div id="mediaplayerabc123" style="margin-left:5px; overflow:hidden;">`+
			`<video width="100%" height="100%" controls="controls">`+
			`<source src="https://x/v.mp4" type="video/mp4">`+
			`</video></div>`,
		fragment.Markup)
}

func TestRenderVideoEmpty(t *testing.T) {
	assert.Nil(t, RenderVideo("", "abc123"))
}

func TestRenderVideoEscapes(t *testing.T) {
	fragment := RenderVideo(`javascript:alert(1)`, `"><script>`)
	require.NotNil(t, fragment)
	assert.NotContains(t, fragment.Markup, "<script>")
	assert.NotContains(t, fragment.Markup, "javascript:")
}

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lesson-extract/internal/config"
)

const lessonPage = `<html><head><title>Lesson</title></head><body>
<header><p>Site header</p></header>
<main><p>Main fallback should lose to the priority selector</p></main>
<div class="mdMN31Content">
  <h2>Rich menus</h2>
  <p>
    A rich menu sits at the bottom
    of the chat screen.
  </p>
  <p>   </p>
  <ul><li>Up to 20 areas</li><li>Images <b>must</b> be JPEG or PNG</li></ul>
  <h3>Limits</h3>
  <div>not collected</div>
</div>
</body></html>`

func TestExtractUsesPrioritySelector(t *testing.T) {
	e := New(config.ContentRules{
		Selectors: []string{".mdMN12Content", ".mdMN31Content", "main"},
	})

	body, err := e.Extract(lessonPage)
	require.NoError(t, err)
	assert.Equal(t, "Rich menus\n\nA rich menu sits at the bottom of the chat screen.\n\nUp to 20 areas\n\nImages must be JPEG or PNG\n\nLimits", body)
}

func TestExtractFallsBackToBody(t *testing.T) {
	e := New(config.ContentRules{Selectors: []string{".mdMN12Content"}, FallbackBody: true})

	body, err := e.Extract(`<html><body><p>Only paragraph</p><h2>Heading</h2></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Only paragraph\n\nHeading", body)
}

func TestExtractWithoutMatchIsEmpty(t *testing.T) {
	e := New(config.ContentRules{Selectors: []string{".mdMN31Content"}})

	body, err := e.Extract(`<html><body><p>Unlisted region</p></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "", body)
}

func TestExtractRegionWithoutContentNodes(t *testing.T) {
	e := New(config.ContentRules{Selectors: []string{"article"}, FallbackBody: true})

	body, err := e.Extract(`<html><body><article><div>divs only</div></article></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "", body)
}

func TestExtractCustomNodes(t *testing.T) {
	e := New(config.ContentRules{Selectors: []string{"article"}, Nodes: "dt, dd"})

	body, err := e.Extract(`<html><body><article><dl><dt>Term</dt><dd>Meaning</dd></dl><p>skipped</p></article></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Term\n\nMeaning", body)
}

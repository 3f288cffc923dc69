package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitContent(t *testing.T) {
	t.Run("no image block", func(t *testing.T) {
		body, block := SplitContent("<p>Solo testo</p>")
		assert.Equal(t, "<p>Solo testo</p>", body)
		assert.Equal(t, "", block)
	})

	t.Run("splits at sentinel and keeps block verbatim", func(t *testing.T) {
		content := "<p>Testo</p>\n" + ImageSentinel + "\n{\"type\":\"image\",\"url\":\"/a.jpg\"}"
		body, block := SplitContent(content)
		assert.Equal(t, "<p>Testo</p>\n", body)
		assert.Equal(t, ImageSentinel+"\n{\"type\":\"image\",\"url\":\"/a.jpg\"}", block)
		assert.Equal(t, content, body+block)
	})
}

func TestParseImagePlacements(t *testing.T) {
	t.Run("parses records and skips malformed lines", func(t *testing.T) {
		content := "<p>x</p>" + ImageSentinel + "\n" +
			`{"type":"image","url":"/a.jpg","position":"top","order":1}` + "\n" +
			"not json\n" +
			`{"type":"video","url":"/b.mp4"}` + "\n" +
			`{"type":"image","url":"/c.jpg","insertInContent":true,"order":2}`

		placements := ParseImagePlacements(content)
		require.Len(t, placements, 2)
		assert.Equal(t, "/a.jpg", placements[0].URL)
		assert.Equal(t, "top", placements[0].Position)
		assert.True(t, placements[1].InsertInContent)
	})

	t.Run("nil without sentinel", func(t *testing.T) {
		assert.Nil(t, ParseImagePlacements("<p>niente immagini</p>"))
	})
}

func TestPageValidate(t *testing.T) {
	page := &Page{Title: "Spa", Path: "/spa"}
	assert.NoError(t, page.Validate())

	assert.Error(t, (&Page{Path: "/spa"}).Validate())
	assert.Error(t, (&Page{Title: "Spa"}).Validate())
	assert.Error(t, (&Page{Title: "Spa", Path: "spa"}).Validate())
}

func TestMenuIconValidate(t *testing.T) {
	assert.NoError(t, (&MenuIcon{Path: "/spa", Label: "Spa"}).Validate())
	assert.Error(t, (&MenuIcon{Path: "/spa"}).Validate())
	assert.Error(t, (&MenuIcon{Label: "Spa"}).Validate())
}

func TestJSONValueRoundTrip(t *testing.T) {
	value := JSONValue{"color": "#fff", "enabled": true}

	raw, err := value.Value()
	require.NoError(t, err)

	var scanned JSONValue
	require.NoError(t, scanned.Scan(raw))
	assert.Equal(t, "#fff", scanned["color"])
	assert.Equal(t, true, scanned["enabled"])

	var fromNil JSONValue
	require.NoError(t, fromNil.Scan(nil))
	assert.NotNil(t, fromNil)
	assert.Empty(t, fromNil)
}

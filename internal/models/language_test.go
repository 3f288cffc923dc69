package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSupportedLanguage(t *testing.T) {
	assert.True(t, IsSupportedLanguage("it"))
	assert.True(t, IsSupportedLanguage("en"))
	assert.True(t, IsSupportedLanguage("es"))
	assert.False(t, IsSupportedLanguage("pt"))
	assert.False(t, IsSupportedLanguage(""))
	assert.False(t, IsSupportedLanguage("EN"))
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/ristorante", NormalizePath("ristorante"))
	assert.Equal(t, "/ristorante", NormalizePath("/ristorante/"))
	assert.Equal(t, "/menu/antipasti", NormalizePath(" /menu/antipasti "))
	assert.Equal(t, "/", NormalizePath("/"))
}

func TestPathLanguage(t *testing.T) {
	assert.Equal(t, "it", PathLanguage("/ristorante"))
	assert.Equal(t, "en", PathLanguage("/en/ristorante"))
	assert.Equal(t, "de", PathLanguage("/de/menu/antipasti"))
	// Two-letter first segments that are not languages stay Italian.
	assert.Equal(t, "it", PathLanguage("/tv/canali"))
	// A bare language prefix with no page segment has no slash at index 2.
	assert.Equal(t, "it", PathLanguage("/en"))
}

func TestIsSourcePath(t *testing.T) {
	assert.True(t, IsSourcePath("/spa"))
	assert.False(t, IsSourcePath("/fr/spa"))
}

func TestTranslatedPath(t *testing.T) {
	assert.Equal(t, "/en/ristorante", TranslatedPath("en", "/ristorante"))
	assert.Equal(t, "/de/menu/antipasti", TranslatedPath("de", "menu/antipasti/"))
	assert.Equal(t, "", TranslatedPath("en", ""))
	assert.Equal(t, "", TranslatedPath("en", "   "))
}

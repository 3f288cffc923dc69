package models

import "strings"

// SourceLanguage is the language pages are authored in. Paths of source pages
// carry no language prefix.
const SourceLanguage = "it"

// TargetLanguages are the languages the cloning workflow materializes, in the
// order they are processed.
var TargetLanguages = []string{"en", "fr", "de", "es"}

// IsSupportedLanguage reports whether code is the source language or one of
// the translation targets.
func IsSupportedLanguage(code string) bool {
	if code == SourceLanguage {
		return true
	}
	for _, lang := range TargetLanguages {
		if lang == code {
			return true
		}
	}
	return false
}

// NormalizePath guarantees a single leading slash and no trailing slash
// (except for the bare root path).
func NormalizePath(path string) string {
	path = "/" + strings.Trim(strings.TrimSpace(path), "/")
	return path
}

// PathLanguage returns the two-letter language prefix of a page path, or the
// source language when the path has none.
func PathLanguage(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	slash := strings.IndexByte(trimmed, '/')
	if slash != 2 {
		return SourceLanguage
	}
	prefix := trimmed[:2]
	for _, lang := range TargetLanguages {
		if lang == prefix {
			return prefix
		}
	}
	return SourceLanguage
}

// IsSourcePath reports whether the path belongs to an Italian (unprefixed)
// page.
func IsSourcePath(path string) bool {
	return PathLanguage(path) == SourceLanguage
}

// TranslatedPath computes the path of a page's counterpart in the given
// language: the normalized source path behind a /{lang} prefix. An empty
// source path stays empty so unset parent paths survive prefixing.
func TranslatedPath(lang, path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	return "/" + lang + NormalizePath(path)
}

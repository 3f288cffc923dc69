package models

import (
	"encoding/json"
	"strings"
)

// ImageSentinel marks the start of the serialized image-placement block that
// page content may carry after its HTML body.
const ImageSentinel = "<!-- IMAGES -->"

// ImagePlacement is one serialized image record embedded in page content.
type ImagePlacement struct {
	Type            string `json:"type"`
	URL             string `json:"url"`
	Position        string `json:"position"`
	Caption         string `json:"caption"`
	InsertInContent bool   `json:"insertInContent"`
	Order           int    `json:"order"`
}

// SplitContent separates a page's HTML body from its image block. The block
// (sentinel included) is returned verbatim so it can be reattached unchanged.
func SplitContent(content string) (body string, imageBlock string) {
	idx := strings.Index(content, ImageSentinel)
	if idx < 0 {
		return content, ""
	}
	return content[:idx], content[idx:]
}

// ParseImagePlacements decodes the newline-delimited JSON records that follow
// the sentinel. Malformed lines are skipped rather than failing the page.
func ParseImagePlacements(content string) []ImagePlacement {
	_, block := SplitContent(content)
	if block == "" {
		return nil
	}

	var placements []ImagePlacement
	lines := strings.Split(strings.TrimPrefix(block, ImageSentinel), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var placement ImagePlacement
		if err := json.Unmarshal([]byte(line), &placement); err != nil {
			continue
		}
		if placement.Type == "image" {
			placements = append(placements, placement)
		}
	}
	return placements
}

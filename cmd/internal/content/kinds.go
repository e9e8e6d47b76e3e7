package content

import "strings"

// Category classifies a project. Free-form input is validated at the
// boundary; anything unknown collapses to CategoryOther.
type Category string

const (
	CategoryComics    Category = "comics"
	CategoryAnimation Category = "animation"
	CategoryNovel     Category = "novel"
	CategoryScript    Category = "script"
	CategoryAI        Category = "ai"
	CategoryOther     Category = "other"
)

// ParseCategory maps a raw string to a Category. Empty or unknown input
// yields CategoryOther.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "comics":
		return CategoryComics
	case "animation":
		return CategoryAnimation
	case "novel":
		return CategoryNovel
	case "script":
		return CategoryScript
	case "ai":
		return CategoryAI
	default:
		return CategoryOther
	}
}

// ContentType classifies a post's payload kind.
type ContentType string

const (
	ContentTypeDocument ContentType = "document"
	ContentTypeImage    ContentType = "image"
	ContentTypeVideo    ContentType = "video"
)

// ParseContentType maps a raw string to a ContentType. Empty or unknown
// input yields ContentTypeDocument.
func ParseContentType(s string) ContentType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image":
		return ContentTypeImage
	case "video":
		return ContentTypeVideo
	default:
		return ContentTypeDocument
	}
}

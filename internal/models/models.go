package models

import "time"

// Media represents one catalog entry, either a photo or a video.
type Media struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Type       string    `json:"type"` // "photo" or "video"
	Duration   int       `json:"duration"`
	Views      int64     `json:"views"`
	IsHD       bool      `json:"isHd"`
	CoverURL   string    `json:"coverUrl"`
	VideoURL   string    `json:"videoUrl,omitempty"`
	Performer  string    `json:"performer"`
	AgeBadge   string    `json:"ageBadge,omitempty"`
	ShowOnHome bool      `json:"showOnHome"`
	CategoryID int64     `json:"categoryId"`
	Category   string    `json:"category,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// MediaTypes lists the accepted values for Media.Type.
var MediaTypes = []string{"photo", "video"}

// ValidMediaType reports whether t is an accepted media type.
func ValidMediaType(t string) bool {
	for _, mt := range MediaTypes {
		if t == mt {
			return true
		}
	}
	return false
}

// Category groups media entries for browsing.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

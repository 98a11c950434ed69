package models

// LibraryEntry is one video in the flat-file library exposed to the UI.
type LibraryEntry struct {
	Name     string `json:"name"`
	Link     string `json:"link"`
	Duration string `json:"duration"`
}

package models

import "time"

// File is a single stored item: an uploaded file or a saved text
// snippet. Filename is the generated storage key, OriginalName the
// display name shown to the user.
type File struct {
	ID            int64     `json:"id" db:"id"`
	UserID        int64     `json:"user_id" db:"user_id"`
	Filename      string    `json:"filename" db:"filename"`
	OriginalName  string    `json:"original_name" db:"original_name"`
	MimeType      string    `json:"mime_type" db:"mime_type"`
	SizeBytes     int64     `json:"size_bytes" db:"size_bytes"`
	IsTextSnippet bool      `json:"is_text_snippet" db:"is_text_snippet"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

package models

import "time"

// Image is an uploaded portfolio screenshot stored on local disk.
type Image struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Hash             string    `gorm:"uniqueIndex;size:64;not null" json:"hash"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	OriginalFilename string    `json:"original_filename"`
	MimeType         string    `gorm:"size:32" json:"mime_type"`
	SizeBytes        int64     `json:"size_bytes"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	JPEGPath         string    `json:"jpeg_path"`
	WebPPath         string    `json:"webp_path"`
	CreatedAt        time.Time `json:"created_at"`
}

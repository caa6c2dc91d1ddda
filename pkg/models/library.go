package models

import "time"

const (
	ReadingNotStarted = "NOT_STARTED"
	ReadingActive     = "READING"
	ReadingFinished   = "FINISHED"
)

// LibraryEntry is the single row a user holds per comic: favorite flag,
// reading status and last-read position. Keyed by (UserID, ComicID).
type LibraryEntry struct {
	UserID            string    `json:"userId"`
	ComicID           string    `json:"comicId"`
	IsFavorited       bool      `json:"isFavorited"`
	Status            string    `json:"status"`
	LastReadChapterID string    `json:"lastReadChapterId,omitempty"`
	UpdatedAt         time.Time `json:"updatedAt"`
	Comic             *Comic    `json:"comic,omitempty"`
}

func ValidReadingStatus(s string) bool {
	return s == ReadingNotStarted || s == ReadingActive || s == ReadingFinished
}

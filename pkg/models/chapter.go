package models

import "time"

// Chapter belongs to a comic. ChapterNumber is a float so releases like
// 3.5 specials keep their place in the ascending order.
type Chapter struct {
	ID            string    `json:"id"`
	ComicID       string    `json:"comicId"`
	Title         string    `json:"title"`
	ChapterNumber float64   `json:"chapterNumber"`
	PDFURL        string    `json:"pdfUrl"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

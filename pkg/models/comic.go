package models

import "time"

const (
	ComicOngoing   = "ONGOING"
	ComicCompleted = "COMPLETED"

	VisibilityPrivate = "PRIVATE"
	VisibilityPublic  = "PUBLIC"
)

// Comic is a catalog entry. Author, Categories and Chapters are filled in
// depending on how much of the graph the query loaded.
type Comic struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	CoverImage  string       `json:"coverImage"`
	Status      string       `json:"status"`
	Visibility  string       `json:"visibility"`
	AuthorID    string       `json:"authorId"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Author      *UserSummary `json:"author,omitempty"`
	Categories  []Category   `json:"categories,omitempty"`
	Chapters    []Chapter    `json:"chapters,omitempty"`
}

// Pagination echoes the listing window back to the client. TotalPages is
// ceil(TotalComics/Limit) under the same filter as the page itself.
type Pagination struct {
	TotalComics int `json:"totalComics"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
}

func ValidComicStatus(s string) bool {
	return s == ComicOngoing || s == ComicCompleted
}

func ValidVisibility(v string) bool {
	return v == VisibilityPrivate || v == VisibilityPublic
}

package models

import "time"

// Review carries the reviewer summary when loaded for listing.
type Review struct {
	ID        string       `json:"id"`
	ComicID   string       `json:"comicId"`
	UserID    string       `json:"userId"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	User      *UserSummary `json:"user,omitempty"`
}

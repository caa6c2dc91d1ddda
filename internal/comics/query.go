package comics

import (
	"strings"

	"comichub/pkg/models"
)

// ListQuery is everything a catalog listing can filter and sort on.
// CurrentUserID is the authenticated caller (empty for anonymous) and only
// influences visibility.
type ListQuery struct {
	Page          int
	Limit         int
	SearchTerm    string
	CategoryID    string
	Status        string
	Sort          string // "latest" | "updated" | ""
	AuthorID      string
	Visibility    string // explicit filter, "" for policy default
	CurrentUserID string
}

// clause is one conjunct of the listing predicate. The same clause list
// drives both the page query and the total count so the two can never
// disagree.
type clause interface {
	SQL() string
	Args() []any
}

type equals struct {
	col string
	val any
}

func (e equals) SQL() string { return e.col + " = ?" }
func (e equals) Args() []any { return []any{e.val} }

type containsFold struct {
	col  string
	term string
}

func (c containsFold) SQL() string { return "LOWER(" + c.col + ") LIKE ?" }
func (c containsFold) Args() []any {
	return []any{"%" + strings.ToLower(strings.TrimSpace(c.term)) + "%"}
}

type inCategory struct {
	categoryID string
}

func (c inCategory) SQL() string {
	return "EXISTS (SELECT 1 FROM comic_categories cc WHERE cc.comic_id = c.id AND cc.category_id = ?)"
}
func (c inCategory) Args() []any { return []any{c.categoryID} }

// never matches nothing: an anonymous caller asking for PRIVATE comics.
type never struct{}

func (never) SQL() string { return "1 = 0" }
func (never) Args() []any { return nil }

func buildFilter(q ListQuery) []clause {
	var cs []clause

	if strings.TrimSpace(q.SearchTerm) != "" {
		cs = append(cs, containsFold{col: "c.title", term: q.SearchTerm})
	}
	if q.Status != "" {
		cs = append(cs, equals{col: "c.status", val: q.Status})
	}
	if q.CategoryID != "" {
		cs = append(cs, inCategory{categoryID: q.CategoryID})
	}
	if q.AuthorID != "" {
		cs = append(cs, equals{col: "c.author_id", val: q.AuthorID})
	}

	// Visibility policy. An explicit PRIVATE filter is scoped to the
	// caller's own comics; without an explicit filter, owners listing
	// their own catalog see everything and everyone else sees PUBLIC.
	switch {
	case q.Visibility == models.VisibilityPrivate:
		if q.CurrentUserID == "" {
			cs = append(cs, never{})
		} else {
			cs = append(cs,
				equals{col: "c.visibility", val: models.VisibilityPrivate},
				equals{col: "c.author_id", val: q.CurrentUserID},
			)
		}
	case q.Visibility == models.VisibilityPublic:
		cs = append(cs, equals{col: "c.visibility", val: models.VisibilityPublic})
	case q.AuthorID != "" && q.AuthorID == q.CurrentUserID:
		// owner listing own comics: no restriction
	default:
		cs = append(cs, equals{col: "c.visibility", val: models.VisibilityPublic})
	}

	return cs
}

func whereSQL(cs []clause) (string, []any) {
	if len(cs) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(cs))
	var args []any
	for _, c := range cs {
		parts = append(parts, c.SQL())
		args = append(args, c.Args()...)
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func orderSQL(sort string) string {
	if sort == "latest" {
		return " ORDER BY c.created_at DESC"
	}
	// "updated" and unspecified both mean most recently touched first
	return " ORDER BY c.updated_at DESC"
}

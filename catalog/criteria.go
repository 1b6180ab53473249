package catalog

import (
	"math"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Sort keys accepted by SortPies.
const (
	SortByID        = "id"
	SortByIDDesc    = "id_desc"
	SortByName      = "name"
	SortByNameDesc  = "name_desc"
	SortByPrice     = "price"
	SortByPriceDesc = "price_desc"
)

var pieSortOrders = map[string]string{
	SortByID:        "p.id ASC",
	SortByIDDesc:    "p.id DESC",
	SortByName:      "p.name ASC",
	SortByNameDesc:  "p.name DESC",
	SortByPrice:     "p.price ASC",
	SortByPriceDesc: "p.price DESC",
}

// SortPies orders pies by one of the Sort* keys. Unknown keys fall back to
// id ascending. A secondary order on id keeps pages stable.
func SortPies(sortBy string) repository.SelectCriteria {
	order, ok := pieSortOrders[sortBy]
	if !ok {
		order = pieSortOrders[SortByID]
	}
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.OrderExpr(order)
		if order != pieSortOrders[SortByID] && order != pieSortOrders[SortByIDDesc] {
			q = q.OrderExpr("p.id ASC")
		}
		return q
	}
}

// Paginate selects a one-based page. Pages below 1 are treated as 1 and
// pages past the largest addressable offset select an empty page. A size of
// zero or less selects every row.
func Paginate(page, size int) repository.SelectCriteria {
	if size <= 0 {
		return AllRows()
	}
	size = min(size, maxRows)
	page = max(page, 1)
	offset := maxRows
	if page-1 <= maxRows/size {
		offset = (page - 1) * size
	}
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Limit(size).Offset(offset)
	}
}

// maxRows bounds limits and offsets; bun keeps them as int32.
const maxRows = math.MaxInt32

// AllRows lifts the default page limit of repository.Repository.List.
func AllRows() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Limit(0).Offset(0)
	}
}

// MatchText keeps pies whose name, short or long description contains text,
// ignoring case. An empty text matches everything.
func MatchText(text string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if text == "" {
			return q
		}
		pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
		return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where(`LOWER(p.name) LIKE ? ESCAPE '\'`, pattern).
				WhereOr(`LOWER(p.short_description) LIKE ? ESCAPE '\'`, pattern).
				WhereOr(`LOWER(p.long_description) LIKE ? ESCAPE '\'`, pattern)
		})
	}
}

// InCategory keeps pies of the given category. A nil id matches everything.
func InCategory(categoryID *int64) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if categoryID == nil {
			return q
		}
		return q.Where("p.category_id = ?", *categoryID)
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

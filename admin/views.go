package admin

import (
	"errors"
	"strconv"

	"github.com/goliatone/go-pieshop-admin/catalog"
)

// ErrSelectionNotFound is returned when an order index selection names an
// order or order line that does not exist.
var ErrSelectionNotFound = errors.New("admin: selected order or order line not found")

// PagedList is one page of a listing.
type PagedList[T any] struct {
	Items       []T  `json:"items"`
	PageIndex   int  `json:"pageIndex"`
	PageSize    int  `json:"pageSize"`
	TotalCount  int  `json:"totalCount"`
	TotalPages  int  `json:"totalPages"`
	HasPrevious bool `json:"hasPrevious"`
	HasNext     bool `json:"hasNext"`
}

// NewPagedList builds the page metadata around items.
func NewPagedList[T any](items []T, count, pageIndex, pageSize int) PagedList[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = (count + pageSize - 1) / pageSize
	}
	return PagedList[T]{
		Items:       items,
		PageIndex:   pageIndex,
		PageSize:    pageSize,
		TotalCount:  count,
		TotalPages:  totalPages,
		HasPrevious: pageIndex > 1,
		HasNext:     pageIndex < totalPages,
	}
}

// SortParams holds the sort key in use and the key each column header
// should link to next.
type SortParams struct {
	Current string `json:"currentSort"`
	ID      string `json:"idSortParam"`
	Name    string `json:"nameSortParam"`
	Price   string `json:"priceSortParam"`
}

// NewSortParams toggles the column matching sortBy between ascending and
// descending. An empty key counts as id.
func NewSortParams(sortBy string) SortParams {
	p := SortParams{
		Current: sortBy,
		ID:      catalog.SortByID,
		Name:    catalog.SortByName,
		Price:   catalog.SortByPrice,
	}
	switch sortBy {
	case "", catalog.SortByID:
		p.ID = catalog.SortByIDDesc
	case catalog.SortByName:
		p.Name = catalog.SortByNameDesc
	case catalog.SortByPrice:
		p.Price = catalog.SortByPriceDesc
	}
	return p
}

// SortedPiesView is the sorted and paged pie listing.
type SortedPiesView struct {
	Sort SortParams              `json:"sort"`
	Page PagedList[*catalog.Pie] `json:"page"`
}

// SelectItem is one option of a drop-down.
type SelectItem struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// CategoryOptions lists categories as drop-down options.
func CategoryOptions(categories []*catalog.Category) []SelectItem {
	items := make([]SelectItem, len(categories))
	for i, c := range categories {
		items[i] = SelectItem{Value: strconv.FormatInt(c.CategoryID, 10), Text: c.Name}
	}
	return items
}

// PieSearchView is the result of a pie search together with the category
// filter options.
type PieSearchView struct {
	Pies           []*catalog.Pie `json:"pies"`
	Categories     []SelectItem   `json:"categories"`
	SearchQuery    string         `json:"searchQuery"`
	SearchCategory *int64         `json:"searchCategory,omitempty"`
}

// OrderIndexView lists orders and drills down into the selected order and
// order line.
type OrderIndexView struct {
	Orders                []*catalog.Order       `json:"orders"`
	OrderDetails          []*catalog.OrderDetail `json:"orderDetails,omitempty"`
	Pies                  []*catalog.Pie         `json:"pies,omitempty"`
	SelectedOrderID       *int64                 `json:"selectedOrderId,omitempty"`
	SelectedOrderDetailID *int64                 `json:"selectedOrderDetailId,omitempty"`
}

// NewOrderIndexView selects the lines of orderID and the pie of
// orderDetailID. A line can only be selected within a selected order.
func NewOrderIndexView(orders []*catalog.Order, orderID, orderDetailID *int64) (OrderIndexView, error) {
	view := OrderIndexView{Orders: orders}
	if view.Orders == nil {
		view.Orders = []*catalog.Order{}
	}

	if orderID != nil {
		var selected *catalog.Order
		for _, o := range orders {
			if o.OrderID == *orderID {
				selected = o
				break
			}
		}
		if selected == nil {
			return OrderIndexView{}, ErrSelectionNotFound
		}
		view.OrderDetails = selected.OrderDetails
		view.SelectedOrderID = orderID
	}

	if orderDetailID != nil {
		var line *catalog.OrderDetail
		for _, od := range view.OrderDetails {
			if od.OrderDetailID == *orderDetailID {
				line = od
				break
			}
		}
		if line == nil {
			return OrderIndexView{}, ErrSelectionNotFound
		}
		view.Pies = []*catalog.Pie{line.Pie}
		view.SelectedOrderDetailID = orderDetailID
	}

	return view, nil
}

package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	log "github.com/sirupsen/logrus"

	"github.com/goliatone/go-pieshop-admin/catalog"
	"github.com/goliatone/go-pieshop-admin/optimistic"
)

// DefaultPageSize is the number of pies on one page.
const DefaultPageSize = 5

// Handlers serves the back-office JSON API.
type Handlers struct {
	pies       *catalog.PieRepository
	categories *catalog.CategoryService
	orders     *catalog.OrderRepository
	editor     *PieEditor
	pageSize   int
}

// NewHandlers wires the handlers. A pageSize below 1 uses DefaultPageSize.
func NewHandlers(pies *catalog.PieRepository, categories *catalog.CategoryService, orders *catalog.OrderRepository, editor *PieEditor, pageSize int) *Handlers {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Handlers{
		pies:       pies,
		categories: categories,
		orders:     orders,
		editor:     editor,
		pageSize:   pageSize,
	}
}

// Register mounts the routes on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/pies", h.ListPiesHandler)
	r.POST("/pies", h.CreatePieHandler)
	r.GET("/pies/paged", h.PagedPiesHandler)
	r.GET("/pies/sorted", h.SortedPiesHandler)
	r.GET("/pies/search", h.SearchPiesHandler)
	r.GET("/pies/:id", h.GetPieHandler)
	r.PUT("/pies/:id", h.EditPieHandler)
	r.DELETE("/pies/:id", h.DeletePieHandler)

	r.GET("/categories", h.ListCategoriesHandler)
	r.POST("/categories", h.CreateCategoryHandler)
	r.PUT("/categories/names", h.UpdateCategoryNamesHandler)
	r.GET("/categories/:id", h.GetCategoryHandler)
	r.PUT("/categories/:id", h.UpdateCategoryHandler)
	r.DELETE("/categories/:id", h.DeleteCategoryHandler)

	r.GET("/orders", h.OrderIndexHandler)
	r.GET("/orders/:id", h.GetOrderHandler)
}

func (h *Handlers) ListPiesHandler(c *gin.Context) {
	pies, err := h.pies.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(pies))
}

func (h *Handlers) GetPieHandler(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	pie, err := h.pies.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pie)
}

func (h *Handlers) CreatePieHandler(c *gin.Context) {
	var pie catalog.Pie
	if err := c.ShouldBindJSON(&pie); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	if !h.categoryExists(c, pie.CategoryID) {
		return
	}
	if err := h.pies.Create(ctx, &pie); err != nil {
		respondError(c, err)
		return
	}
	h.categories.InvalidateCache(ctx)
	c.JSON(http.StatusCreated, &pie)
}

func (h *Handlers) EditPieHandler(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var form PieEditForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	form.Pie.PieID = id
	if form.Original != nil {
		form.Original.PieID = id
	}

	if !h.categoryExists(c, form.Pie.CategoryID) {
		return
	}

	ctx := c.Request.Context()
	result, err := h.editor.Edit(ctx, form)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	switch result.Status {
	case EditSaved:
		h.categories.InvalidateCache(ctx)
	case EditConflict:
		status = http.StatusConflict
	case EditDeleted:
		status = http.StatusGone
	case EditMissing:
		status = http.StatusNotFound
	case EditFailed:
		status = http.StatusServiceUnavailable
	}
	if result.Status == EditSaved || result.Status == EditConflict || result.Status == EditFailed {
		if categories, err := h.categories.List(ctx); err == nil {
			result.Categories = CategoryOptions(categories)
		} else {
			log.Errorf("list categories for pie edit form: %v", err)
		}
	}
	c.JSON(status, result)
}

func (h *Handlers) DeletePieHandler(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.pies.Delete(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	h.categories.InvalidateCache(ctx)
	c.JSON(http.StatusOK, gin.H{"message": "Pie deleted successfully!"})
}

func (h *Handlers) PagedPiesHandler(c *gin.Context) {
	page, ok := pageNumber(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	pies, err := h.pies.ListPaged(ctx, page, h.pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	count, err := h.pies.Count(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewPagedList(pies, count, page, h.pageSize))
}

func (h *Handlers) SortedPiesHandler(c *gin.Context) {
	page, ok := pageNumber(c)
	if !ok {
		return
	}
	sortBy := c.Query("sortBy")
	ctx := c.Request.Context()
	pies, err := h.pies.ListSortedPaged(ctx, sortBy, page, h.pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	count, err := h.pies.Count(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SortedPiesView{
		Sort: NewSortParams(sortBy),
		Page: NewPagedList(pies, count, page, h.pageSize),
	})
}

func (h *Handlers) SearchPiesHandler(c *gin.Context) {
	category, ok := queryID(c, "category")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	categories, err := h.categories.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	view := PieSearchView{
		Pies:           []*catalog.Pie{},
		Categories:     CategoryOptions(categories),
		SearchCategory: category,
	}

	if query, present := c.GetQuery("q"); present {
		pies, err := h.pies.Search(ctx, query, category)
		if err != nil {
			respondError(c, err)
			return
		}
		view.Pies = nonNil(pies)
		view.SearchQuery = query
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handlers) ListCategoriesHandler(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(categories))
}

func (h *Handlers) GetCategoryHandler(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	category, err := h.categories.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handlers) CreateCategoryHandler(c *gin.Context) {
	var category catalog.Category
	if err := c.ShouldBindJSON(&category); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if err := h.categories.Create(c.Request.Context(), &category); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, &category)
}

func (h *Handlers) UpdateCategoryHandler(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var category catalog.Category
	if err := c.ShouldBindJSON(&category); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	category.CategoryID = id
	if err := h.categories.Update(c.Request.Context(), &category); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, &category)
}

func (h *Handlers) DeleteCategoryHandler(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.categories.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully!"})
}

func (h *Handlers) UpdateCategoryNamesHandler(c *gin.Context) {
	var renames []catalog.CategoryRename
	if err := c.ShouldBindJSON(&renames); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	if err := h.categories.UpdateNames(ctx, renames); err != nil {
		respondError(c, err)
		return
	}
	categories, err := h.categories.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(categories))
}

func (h *Handlers) OrderIndexHandler(c *gin.Context) {
	orderID, ok := queryID(c, "orderId")
	if !ok {
		return
	}
	orderDetailID, ok := queryID(c, "orderDetailId")
	if !ok {
		return
	}
	orders, err := h.orders.ListWithDetails(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := NewOrderIndexView(orders, orderID, orderDetailID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handlers) GetOrderHandler(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.orders.GetWithDetails(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// categoryExists answers 400 when a pie names a category that does not
// exist. A zero id is left to pie validation.
func (h *Handlers) categoryExists(c *gin.Context, id int64) bool {
	if id == 0 {
		return true
	}
	_, err := h.categories.GetByID(c.Request.Context(), id)
	switch {
	case err == nil:
		return true
	case errors.Is(err, catalog.ErrCategoryNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		respondError(c, err)
	}
	return false
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, optimistic.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrPieNotFound),
		errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, catalog.ErrOrderNotFound),
		errors.Is(err, ErrSelectionNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrDuplicateCategoryName),
		errors.Is(err, catalog.ErrCategoryHasPies),
		errors.Is(err, optimistic.ErrVersionMismatch):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	body := gin.H{"error": err.Error()}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		body["fields"] = verrs
	}
	c.JSON(status, body)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid id %q", c.Param("id"))})
		return 0, false
	}
	return id, true
}

func queryID(c *gin.Context, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s %q", name, raw)})
		return nil, false
	}
	return &id, true
}

func pageNumber(c *gin.Context) (int, bool) {
	raw := c.Query("page")
	if raw == "" {
		return 1, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid page %q", raw)})
		return 0, false
	}
	if page < 1 {
		page = 1
	}
	return page, true
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

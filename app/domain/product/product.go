package product

import (
	"fmt"
	"strings"
)

// Product is the client-side shadow of a catalog record. The backend is the
// source of truth; cached copies may be stale while offline.
type Product struct {
	ID            string  `json:"id"`
	SKU           string  `json:"sku"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	UnitOfMeasure string  `json:"unitOfMeasure"`
}

// ProductPage is one cached page of query results.
type ProductPage struct {
	Items       []Product `json:"items"`
	TotalItems  int       `json:"totalItems"`
	CurrentPage int       `json:"currentPage"`
	PageSize    int       `json:"pageSize"`
}

const (
	DefaultPageSize = 10
	SortAscending   = "asc"
	SortDescending  = "desc"
)

// ProductQuery carries the parameters of a paginated catalog query.
type ProductQuery struct {
	Keywords      string `json:"keywords"`
	PageNumber    int    `json:"pageNumber"`
	PageSize      int    `json:"pageSize"`
	OrderBy       string `json:"orderBy"`
	SortDirection string `json:"sortDirection"`
}

// Normalized returns a copy with defaults applied so that equivalent queries
// produce identical cache keys.
func (q ProductQuery) Normalized() ProductQuery {
	if q.PageNumber < 1 {
		q.PageNumber = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.OrderBy == "" {
		q.OrderBy = "name"
	}
	if q.SortDirection != SortDescending {
		q.SortDirection = SortAscending
	}
	q.Keywords = strings.TrimSpace(q.Keywords)
	return q
}

// CacheKey derives the composite cache slot for this query. It is a pure
// function of the query parameters: repeated identical queries hit the same
// slot.
func (q ProductQuery) CacheKey() string {
	n := q.Normalized()
	return fmt.Sprintf("products:page:%d:%d:%s:%s:%s",
		n.PageNumber, n.PageSize, n.Keywords, n.OrderBy, n.SortDirection)
}

// CreateProductCommand is the payload of a product creation. ID is empty for
// online creates (the server assigns one) and filled in for offline creates so
// the queued mutation replays with the id the UI already observed.
type CreateProductCommand struct {
	ID            string  `json:"id,omitempty"`
	SKU           string  `json:"sku"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	UnitOfMeasure string  `json:"unitOfMeasure"`
}

func (c CreateProductCommand) ToProduct() Product {
	return Product{
		ID:            c.ID,
		SKU:           c.SKU,
		Name:          c.Name,
		Category:      c.Category,
		Description:   c.Description,
		Price:         c.Price,
		Currency:      c.Currency,
		UnitOfMeasure: c.UnitOfMeasure,
	}
}

type UpdateProductCommand struct {
	ID            string  `json:"id"`
	SKU           string  `json:"sku"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	UnitOfMeasure string  `json:"unitOfMeasure"`
}

func (c UpdateProductCommand) ToProduct() Product {
	return Product{
		ID:            c.ID,
		SKU:           c.SKU,
		Name:          c.Name,
		Category:      c.Category,
		Description:   c.Description,
		Price:         c.Price,
		Currency:      c.Currency,
		UnitOfMeasure: c.UnitOfMeasure,
	}
}

type DeleteProductsCommand struct {
	IDs []string `json:"ids"`
}

// PendingMutations is a point-in-time snapshot of the three offline queues.
type PendingMutations struct {
	Creates []CreateProductCommand  `json:"creates"`
	Updates []UpdateProductCommand  `json:"updates"`
	Deletes []DeleteProductsCommand `json:"deletes"`
}

func (pm PendingMutations) Total() int {
	return len(pm.Creates) + len(pm.Updates) + len(pm.Deletes)
}

// Package stubserver is an in-memory implementation of the product backend,
// used by the demo CLI and as a local development fixture. It speaks the same
// wire contract the real backend does, including RFC 7807 error bodies.
package stubserver

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"shelfsync.io/shelfsync/app/domain/product"
)

type problemDetails struct {
	Title  string              `json:"title"`
	Detail string              `json:"detail,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

type Server struct {
	mu       sync.RWMutex
	products map[string]product.Product
}

func New() *Server {
	return &Server{products: map[string]product.Product{}}
}

func (s *Server) Engine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	v1 := engine.Group("/v1")
	v1.GET("/healthz", s.healthz)
	v1.GET("/products", s.listProducts)
	v1.GET("/products/:id", s.getProduct)
	v1.POST("/products", s.createProduct)
	v1.PUT("/products/:id", s.updateProduct)
	v1.DELETE("/products", s.deleteProducts)
	return engine
}

func (s *Server) Run(addr string) error {
	return s.Engine().Run(addr)
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listProducts(c *gin.Context) {
	pageNumber, _ := strconv.Atoi(c.DefaultQuery("pageNumber", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(product.DefaultPageSize)))
	keywords := strings.ToLower(strings.TrimSpace(c.Query("keywords")))
	orderBy := c.DefaultQuery("orderBy", "name")
	direction := c.DefaultQuery("sortDirection", product.SortAscending)
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 {
		pageSize = product.DefaultPageSize
	}

	s.mu.RLock()
	matched := make([]product.Product, 0, len(s.products))
	for _, p := range s.products {
		if keywords == "" ||
			strings.Contains(strings.ToLower(p.Name), keywords) ||
			strings.Contains(strings.ToLower(p.SKU), keywords) ||
			strings.Contains(strings.ToLower(p.Category), keywords) {
			matched = append(matched, p)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		less := false
		switch orderBy {
		case "sku":
			less = matched[i].SKU < matched[j].SKU
		case "price":
			less = matched[i].Price < matched[j].Price
		default:
			less = matched[i].Name < matched[j].Name
		}
		if direction == product.SortDescending {
			return !less
		}
		return less
	})

	start := (pageNumber - 1) * pageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}

	c.JSON(http.StatusOK, product.ProductPage{
		Items:       matched[start:end],
		TotalItems:  len(matched),
		CurrentPage: pageNumber,
		PageSize:    pageSize,
	})
}

func (s *Server) getProduct(c *gin.Context) {
	s.mu.RLock()
	p, ok := s.products[c.Param("id")]
	s.mu.RUnlock()
	if !ok {
		c.JSON(http.StatusNotFound, problemDetails{Title: "product not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) createProduct(c *gin.Context) {
	var cmd product.CreateProductCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, problemDetails{Title: "invalid request body", Detail: err.Error()})
		return
	}
	if fields := validate(cmd.Name, cmd.SKU); len(fields) > 0 {
		c.JSON(http.StatusUnprocessableEntity, problemDetails{Title: "validation failed", Errors: fields})
		return
	}

	p := cmd.ToProduct()
	if p.ID == "" {
		p.ID = "prod_" + uuid.NewString()
	}

	s.mu.Lock()
	s.products[p.ID] = p
	s.mu.Unlock()
	c.JSON(http.StatusCreated, p)
}

func (s *Server) updateProduct(c *gin.Context) {
	var cmd product.UpdateProductCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, problemDetails{Title: "invalid request body", Detail: err.Error()})
		return
	}
	cmd.ID = c.Param("id")
	if fields := validate(cmd.Name, cmd.SKU); len(fields) > 0 {
		c.JSON(http.StatusUnprocessableEntity, problemDetails{Title: "validation failed", Errors: fields})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[cmd.ID]; !ok {
		c.JSON(http.StatusNotFound, problemDetails{Title: "product not found"})
		return
	}
	s.products[cmd.ID] = cmd.ToProduct()
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteProducts(c *gin.Context) {
	var cmd product.DeleteProductsCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, problemDetails{Title: "invalid request body", Detail: err.Error()})
		return
	}

	s.mu.Lock()
	for _, id := range cmd.IDs {
		delete(s.products, id)
	}
	s.mu.Unlock()
	c.Status(http.StatusNoContent)
}

func validate(name, sku string) map[string][]string {
	fields := map[string][]string{}
	if strings.TrimSpace(name) == "" {
		fields["name"] = append(fields["name"], "name is required")
	}
	if strings.TrimSpace(sku) == "" {
		fields["sku"] = append(fields["sku"], "sku is required")
	}
	return fields
}

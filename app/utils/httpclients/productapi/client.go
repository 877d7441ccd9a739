// Package productapi is the client for the authoritative product backend. It
// translates HTTP failures into the domain error taxonomy so nothing
// transport-specific leaks past this boundary.
package productapi

import (
	"context"
	"fmt"
	"strconv"

	"resty.dev/v3"
	"shelfsync.io/shelfsync/app/domain/common"
	"shelfsync.io/shelfsync/app/domain/product"
	"shelfsync.io/shelfsync/app/utils/httpclients"
)

// problemDetails mirrors the backend's RFC 7807 error body; Errors is present
// on validation failures only.
type problemDetails struct {
	Title  string              `json:"title"`
	Detail string              `json:"detail"`
	Errors map[string][]string `json:"errors,omitempty"`
}

type Client struct {
	http *resty.Client
}

func NewClient(baseURL string) *Client {
	client := httpclients.NewClient("ProductAPIClient")
	client.SetBaseURL(baseURL)
	return &Client{http: client}
}

// Ping checks backend reachability; it is the connectivity prober.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.http.R().
		SetContext(ctx).
		Get("/v1/healthz")
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("health check returned %d", res.StatusCode())
	}
	return nil
}

func (c *Client) QueryPaginated(ctx context.Context, query product.ProductQuery) (*product.ProductPage, error) {
	query = query.Normalized()
	var page product.ProductPage
	var apiErr problemDetails
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"keywords":      query.Keywords,
			"pageNumber":    strconv.Itoa(query.PageNumber),
			"pageSize":      strconv.Itoa(query.PageSize),
			"orderBy":       query.OrderBy,
			"sortDirection": query.SortDirection,
		}).
		SetResult(&page).
		SetError(&apiErr).
		Get("/v1/products")
	if err != nil {
		return nil, transportError(err)
	}
	if res.IsError() {
		return nil, domainError(res, &apiErr)
	}
	return &page, nil
}

func (c *Client) GetByID(ctx context.Context, id string) (*product.Product, error) {
	var p product.Product
	var apiErr problemDetails
	res, err := c.http.R().
		SetContext(ctx).
		SetResult(&p).
		SetError(&apiErr).
		SetPathParam("id", id).
		Get("/v1/products/{id}")
	if err != nil {
		return nil, transportError(err)
	}
	if res.IsError() {
		return nil, domainError(res, &apiErr)
	}
	return &p, nil
}

func (c *Client) Create(ctx context.Context, cmd product.CreateProductCommand) (*product.Product, error) {
	var p product.Product
	var apiErr problemDetails
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(cmd).
		SetResult(&p).
		SetError(&apiErr).
		Post("/v1/products")
	if err != nil {
		return nil, transportError(err)
	}
	if res.IsError() {
		return nil, domainError(res, &apiErr)
	}
	return &p, nil
}

func (c *Client) Update(ctx context.Context, cmd product.UpdateProductCommand) error {
	var apiErr problemDetails
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(cmd).
		SetError(&apiErr).
		SetPathParam("id", cmd.ID).
		Put("/v1/products/{id}")
	if err != nil {
		return transportError(err)
	}
	if res.IsError() {
		return domainError(res, &apiErr)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, ids []string) error {
	var apiErr problemDetails
	res, err := c.http.R().
		SetContext(ctx).
		SetAllowMethodDeletePayload(true).
		SetBody(product.DeleteProductsCommand{IDs: ids}).
		SetError(&apiErr).
		Delete("/v1/products")
	if err != nil {
		return transportError(err)
	}
	if res.IsError() {
		return domainError(res, &apiErr)
	}
	return nil
}

func (c *Client) Close() error {
	return c.http.Close()
}

func transportError(err error) error {
	return common.NewProblem("d81f4c2a-6b90-4e57-a3d8-1c7e9f0b5a62", "product api unreachable", err.Error())
}

func domainError(res *resty.Response, apiErr *problemDetails) error {
	switch {
	case res.StatusCode() == 404:
		return common.NewNotFound("b6e0d3f9-2a84-4c17-95be-7f1a8c4d2e50", "product not found")
	case len(apiErr.Errors) > 0:
		return common.NewValidation("9c2e7a50-4d16-4b83-a9f7-3e8b1d6c0f49", apiErr.Errors)
	default:
		title := apiErr.Title
		if title == "" {
			title = fmt.Sprintf("product api error %d", res.StatusCode())
		}
		return common.NewProblem("0f7a3d91-5c28-4e64-b0a9-8d2f6e1c4b73", title, apiErr.Detail)
	}
}

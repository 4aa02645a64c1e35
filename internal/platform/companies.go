package platform

import (
	"context"
	"net/url"
	"strconv"
)

// CompanyFilters narrow a company listing.
type CompanyFilters struct {
	Limit  int
	Offset int
}

// CompanyPage is one page of companies plus the total match count.
type CompanyPage struct {
	Companies []Company `json:"data"`
	Total     int       `json:"total"`
}

// ListCompanies fetches a page of companies.
func (c *Client) ListCompanies(ctx context.Context, filters CompanyFilters) (CompanyPage, error) {
	q := url.Values{}
	if filters.Limit > 0 {
		q.Set("limit", strconv.Itoa(filters.Limit))
	}
	if filters.Offset > 0 {
		q.Set("offset", strconv.Itoa(filters.Offset))
	}

	path := "/api/companies"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page CompanyPage
	if err := c.api.Get(ctx, path, &page); err != nil {
		return CompanyPage{}, err
	}
	return page, nil
}

// GetCompany fetches a single company by id.
func (c *Client) GetCompany(ctx context.Context, id string) (Company, error) {
	var company Company
	if err := c.api.Get(ctx, "/api/companies/"+url.PathEscape(id), &company); err != nil {
		return Company{}, err
	}
	return company, nil
}

// CompanyInput carries the writable company fields.
type CompanyInput struct {
	Name         string `json:"name,omitempty"`
	ContactEmail string `json:"contactEmail,omitempty"`
	Address      string `json:"address,omitempty"`
}

// CreateCompany registers a new tenant company.
func (c *Client) CreateCompany(ctx context.Context, input CompanyInput) (Company, error) {
	var company Company
	if err := c.api.Post(ctx, "/api/companies", input, &company); err != nil {
		return Company{}, err
	}
	return company, nil
}

// UpdateCompany edits a company's writable fields.
func (c *Client) UpdateCompany(ctx context.Context, id string, input CompanyInput) (Company, error) {
	var company Company
	if err := c.api.Put(ctx, "/api/companies/"+url.PathEscape(id), input, &company); err != nil {
		return Company{}, err
	}
	return company, nil
}

// DeleteCompany removes a company.
func (c *Client) DeleteCompany(ctx context.Context, id string) error {
	return c.api.Delete(ctx, "/api/companies/"+url.PathEscape(id), nil)
}

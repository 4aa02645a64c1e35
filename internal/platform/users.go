package platform

import (
	"context"
	"net/url"
	"strconv"
)

// UserFilters narrow a user listing.
type UserFilters struct {
	CompanyID string
	Limit     int
	Offset    int
}

// UserPage is one page of user records plus the total match count.
type UserPage struct {
	Users []UserRecord `json:"data"`
	Total int          `json:"total"`
}

// ListUsers fetches a filtered page of user records.
func (c *Client) ListUsers(ctx context.Context, filters UserFilters) (UserPage, error) {
	q := url.Values{}
	if filters.CompanyID != "" {
		q.Set("companyId", filters.CompanyID)
	}
	if filters.Limit > 0 {
		q.Set("limit", strconv.Itoa(filters.Limit))
	}
	if filters.Offset > 0 {
		q.Set("offset", strconv.Itoa(filters.Offset))
	}

	path := "/api/users"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page UserPage
	if err := c.api.Get(ctx, path, &page); err != nil {
		return UserPage{}, err
	}
	return page, nil
}

// GetUser fetches a single user record by id.
func (c *Client) GetUser(ctx context.Context, id string) (UserRecord, error) {
	var user UserRecord
	if err := c.api.Get(ctx, "/api/users/"+url.PathEscape(id), &user); err != nil {
		return UserRecord{}, err
	}
	return user, nil
}

// UserInput carries the writable user fields.
type UserInput struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	UserType  string `json:"userType,omitempty"`
	CompanyID string `json:"companyId,omitempty"`
	Password  string `json:"password,omitempty"`
}

// CreateUser registers a new user record.
func (c *Client) CreateUser(ctx context.Context, input UserInput) (UserRecord, error) {
	var user UserRecord
	if err := c.api.Post(ctx, "/api/users", input, &user); err != nil {
		return UserRecord{}, err
	}
	return user, nil
}

// UpdateUser edits a user record.
func (c *Client) UpdateUser(ctx context.Context, id string, input UserInput) (UserRecord, error) {
	var user UserRecord
	if err := c.api.Put(ctx, "/api/users/"+url.PathEscape(id), input, &user); err != nil {
		return UserRecord{}, err
	}
	return user, nil
}

// DeleteUser removes a user record.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.api.Delete(ctx, "/api/users/"+url.PathEscape(id), nil)
}

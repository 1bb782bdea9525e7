package client

import (
	"context"
	"net/url"
	"strconv"
)

// ArchiveService handles archived alert API calls
type ArchiveService struct {
	client *Client
}

// ArchiveListOptions contains options for listing archived alerts
type ArchiveListOptions struct {
	ListOptions
	Sort string // archived_desc, archived_asc, created_desc or created_asc
}

// List retrieves archived alerts
func (s *ArchiveService) List(ctx context.Context, opts *ArchiveListOptions) (*Page[ArchivedAlert], error) {
	query := url.Values{}
	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
		if opts.Sort != "" {
			query.Set("sort", opts.Sort)
		}
	}

	var page Page[ArchivedAlert]
	if err := s.client.doRequest(ctx, "GET", withQuery("/api/v1/archive", query), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves an archived alert by ID
func (s *ArchiveService) Get(ctx context.Context, id string) (*ArchivedAlert, error) {
	var alert ArchivedAlert
	if err := s.client.doRequest(ctx, "GET", "/api/v1/archive/"+url.PathEscape(id), nil, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

// Delete permanently removes an archived alert. Admin only.
func (s *ArchiveService) Delete(ctx context.Context, id string) error {
	return s.client.doRequest(ctx, "DELETE", "/api/v1/archive/"+url.PathEscape(id), nil, nil)
}

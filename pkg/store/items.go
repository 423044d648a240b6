package store

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const itemsTable = "process_items"

// ListProcessItems returns process items in creation order. Archived items
// are left out unless opts.IncludeArchived is set.
func (c *Client) ListProcessItems(ctx context.Context, opts ListOptions) ([]ProcessItem, error) {
	q := url.Values{
		"select": {"*"},
		"order":  {"created_at.asc"},
	}
	if !opts.IncludeArchived {
		q.Set("is_archived", "eq.false")
	}
	var rows []itemRow
	if err := c.http.request(ctx, call{
		op:     "list process items",
		method: http.MethodGet,
		table:  itemsTable,
		query:  q,
	}, &rows); err != nil {
		return nil, err
	}
	items := make([]ProcessItem, len(rows))
	for i, r := range rows {
		items[i] = r.item()
	}
	return items, nil
}

// AddProcessItem inserts item and returns the stored row, including the
// server-assigned id and creation time. item.ID and item.CreatedAt are
// ignored.
func (c *Client) AddProcessItem(ctx context.Context, item ProcessItem) (*ProcessItem, error) {
	row := toRow(item)
	row.ID = ""
	row.CreatedAt = nil

	var rows []itemRow
	if err := c.http.request(ctx, call{
		op:     "add process item",
		method: http.MethodPost,
		table:  itemsTable,
		query:  url.Values{"select": {"*"}},
		prefer: preferRepresentation,
		body:   row,
	}, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &Error{Op: "add process item", StatusCode: http.StatusOK, Message: "store returned no row"}
	}
	it := rows[0].item()
	return &it, nil
}

// DeleteProcessItem permanently removes the item with the given id.
func (c *Client) DeleteProcessItem(ctx context.Context, id string) error {
	return c.http.request(ctx, call{
		op:     "delete process item",
		method: http.MethodDelete,
		table:  itemsTable,
		query:  url.Values{"id": {"eq." + id}},
	}, nil)
}

// SetArchived sets the archived flag of every listed item in one request.
// An empty list is a no-op.
func (c *Client) SetArchived(ctx context.Context, ids []string, archived bool) error {
	if len(ids) == 0 {
		return nil
	}
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = strconv.Quote(id)
	}
	return c.http.request(ctx, call{
		op:     "set archived",
		method: http.MethodPatch,
		table:  itemsTable,
		query:  url.Values{"id": {"in.(" + strings.Join(quoted, ",") + ")"}},
		body:   map[string]bool{"is_archived": archived},
	}, nil)
}

// ArchiveAll archives every active item.
func (c *Client) ArchiveAll(ctx context.Context) error {
	return c.http.request(ctx, call{
		op:     "archive process items",
		method: http.MethodPatch,
		table:  itemsTable,
		query:  url.Values{"is_archived": {"eq.false"}},
		body:   map[string]bool{"is_archived": true},
	}, nil)
}

package backend

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/platform/tracer"
)

const restPrefix = "/rest/v1/"

// Select reads rows of table matching f into out (a pointer to a slice).
// token is the caller's access token, or "" to query anonymously.
func (c *Client) Select(ctx context.Context, token, table string, f *Filter, out any) error {
	op := "rest.select"
	resp, err := c.do(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   restPrefix + table,
		query:  f.Values(),
		token:  token,
		attrs:  []tracer.Attribute{tracer.String("backend.table", table)},
	})
	if err != nil {
		return err
	}
	return decode(op, resp, out)
}

// SelectSingle reads exactly one row into out (a pointer to a struct).
// Zero rows is CategoryNotFound.
func (c *Client) SelectSingle(ctx context.Context, token, table string, f *Filter, out any) error {
	op := "rest.select_single"
	resp, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodGet,
		path:    restPrefix + table,
		query:   f.Values(),
		token:   token,
		headers: map[string]string{"Accept": "application/vnd.pgrst.object+json"},
		attrs:   []tracer.Attribute{tracer.String("backend.table", table)},
	})
	if err != nil {
		return err
	}
	return decode(op, resp, out)
}

// Insert creates rows and decodes the created representation into out
// (a pointer to a slice). out may be nil.
func (c *Client) Insert(ctx context.Context, token, table string, rows any, out any) error {
	op := "rest.insert"
	resp, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodPost,
		path:    restPrefix + table,
		token:   token,
		body:    rows,
		headers: map[string]string{"Prefer": preferReturn(out)},
		attrs:   []tracer.Attribute{tracer.String("backend.table", table)},
	})
	if err != nil {
		return err
	}
	return decode(op, resp, out)
}

// Update patches every row matching f with patch.
func (c *Client) Update(ctx context.Context, token, table string, f *Filter, patch any, out any) error {
	op := "rest.update"
	resp, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodPatch,
		path:    restPrefix + table,
		query:   f.conditionValues(),
		token:   token,
		body:    patch,
		headers: map[string]string{"Prefer": preferReturn(out)},
		attrs:   []tracer.Attribute{tracer.String("backend.table", table)},
	})
	if err != nil {
		return err
	}
	return decode(op, resp, out)
}

// Delete removes every row matching f.
func (c *Client) Delete(ctx context.Context, token, table string, f *Filter) error {
	_, err := c.do(ctx, request{
		op:     "rest.delete",
		method: http.MethodDelete,
		path:   restPrefix + table,
		query:  f.conditionValues(),
		token:  token,
		attrs:  []tracer.Attribute{tracer.String("backend.table", table)},
	})
	return err
}

// CallFunction invokes a database function over rpc and decodes its result.
func (c *Client) CallFunction(ctx context.Context, token, fn string, args any, out any) error {
	op := "rest.rpc"
	if args == nil {
		args = map[string]any{}
	}
	resp, err := c.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   restPrefix + "rpc/" + fn,
		token:  token,
		body:   args,
		attrs:  []tracer.Attribute{tracer.String("backend.function", fn)},
	})
	if err != nil {
		return err
	}
	return decode(op, resp, out)
}

// Count returns the number of rows matching f without transferring them.
func (c *Client) Count(ctx context.Context, token, table string, f *Filter) (int, error) {
	op := "rest.count"
	q := f.conditionValues()
	q.Set("select", "id")
	q.Set("limit", "1")
	resp, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodGet,
		path:    restPrefix + table,
		query:   q,
		token:   token,
		headers: map[string]string{"Prefer": "count=exact"},
		attrs:   []tracer.Attribute{tracer.String("backend.table", table)},
	})
	if err != nil {
		return 0, err
	}
	n, ok := parseContentRangeTotal(resp.header.Get("Content-Range"))
	if !ok {
		return 0, &Error{Category: CategoryBadData, Op: op, Status: resp.status, Message: "missing or malformed Content-Range"}
	}
	return n, nil
}

func preferReturn(out any) string {
	if out == nil {
		return "return=minimal"
	}
	return "return=representation"
}

// parseContentRangeTotal reads the total from "0-9/42" or "*/0".
func parseContentRangeTotal(h string) (int, bool) {
	_, total, found := strings.Cut(h, "/")
	if !found || total == "*" {
		return 0, false
	}
	n, err := strconv.Atoi(total)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

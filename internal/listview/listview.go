// Package listview implements the paged, server-filtered list pattern shared
// by every table in folio. A Controller owns page, page size and filter; any
// change to them re-fetches the page from the server. Nothing is filtered or
// sorted locally.
//
// Fetches are split in three steps so they fit an event loop: a mutator
// returns a Request, Run performs the I/O (off the loop), and Apply installs
// the Response if no newer Request has been issued since. Do chains the three
// for synchronous callers.
package listview

import (
	"context"
	"sync"
)

// DefaultPageSize is used when a Controller is built with a non-positive size.
const DefaultPageSize = 10

// PageSizes are the sizes offered by page-size pickers.
var PageSizes = []int{10, 20, 50, 100}

// Query is what the server is asked for. Page is 1-based.
type Query[F any] struct {
	Page     int
	PageSize int
	Filter   F
}

// Result is one page as reported by the server.
type Result[T any] struct {
	Items      []T
	Total      int
	TotalPages int
	Page       int
}

// FetchFunc loads one page.
type FetchFunc[T any, F any] func(ctx context.Context, q Query[F]) (Result[T], error)

// Request is a pending fetch.
type Request[F any] struct {
	Gen   uint64
	Query Query[F]
	// StepBack marks a fetch issued after the requested page came back empty.
	StepBack bool
}

// Response carries a finished fetch back to Apply.
type Response[T any, F any] struct {
	Request Request[F]
	Result  Result[T]
	Err     error
}

// Controller tracks one list view.
type Controller[T any, F comparable] struct {
	mu      sync.Mutex
	fetch   FetchFunc[T, F]
	query   Query[F]
	result  Result[T]
	err     error
	gen     uint64
	loading bool
	loaded  bool
}

// New builds a Controller starting at page 1.
func New[T any, F comparable](fetch FetchFunc[T, F], pageSize int, filter F) *Controller[T, F] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Controller[T, F]{
		fetch: fetch,
		query: Query[F]{Page: 1, PageSize: pageSize, Filter: filter},
	}
}

// Query returns the current query.
func (c *Controller[T, F]) Query() Query[F] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Result returns the last applied page.
func (c *Controller[T, F]) Result() Result[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := c.result
	res.Items = append([]T(nil), c.result.Items...)
	return res
}

// Err returns the error of the last applied fetch, if it failed.
func (c *Controller[T, F]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Loading reports whether the newest request is still outstanding.
func (c *Controller[T, F]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Loaded reports whether any page has been applied.
func (c *Controller[T, F]) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Reload re-requests the current page.
func (c *Controller[T, F]) Reload() Request[F] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.beginLocked(false)
}

// AfterMutation re-requests the current page after a create, update, delete
// or status change.
func (c *Controller[T, F]) AfterMutation() Request[F] {
	return c.Reload()
}

// SetPage moves to page p (at least 1).
func (c *Controller[T, F]) SetPage(p int) Request[F] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.Page = max(1, p)
	return c.beginLocked(false)
}

// Next moves forward one page. ok is false on the last known page.
func (c *Controller[T, F]) Next() (req Request[F], ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded && c.query.Page >= c.result.TotalPages {
		return Request[F]{}, false
	}
	c.query.Page++
	return c.beginLocked(false), true
}

// Prev moves back one page. ok is false on page 1.
func (c *Controller[T, F]) Prev() (req Request[F], ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.query.Page <= 1 {
		return Request[F]{}, false
	}
	c.query.Page--
	return c.beginLocked(false), true
}

// SetPageSize changes the page size and returns to page 1.
func (c *Controller[T, F]) SetPageSize(n int) Request[F] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 {
		n = DefaultPageSize
	}
	c.query.PageSize = n
	c.query.Page = 1
	return c.beginLocked(false)
}

// CyclePageSize advances to the next entry of PageSizes.
func (c *Controller[T, F]) CyclePageSize() Request[F] {
	current := c.Query().PageSize
	next := PageSizes[0]
	for i, size := range PageSizes {
		if size == current {
			next = PageSizes[(i+1)%len(PageSizes)]
			break
		}
	}
	return c.SetPageSize(next)
}

// ApplyFilter replaces the filter and returns to page 1.
func (c *Controller[T, F]) ApplyFilter(f F) Request[F] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.Filter = f
	c.query.Page = 1
	return c.beginLocked(false)
}

// Run performs the fetch for req. It does not touch controller state.
func (c *Controller[T, F]) Run(ctx context.Context, req Request[F]) Response[T, F] {
	res, err := c.fetch(ctx, req.Query)
	return Response[T, F]{Request: req, Result: res, Err: err}
}

// Apply installs resp when it answers the newest request. A stale response
// returns applied=false and changes nothing. When the requested page came back
// empty past the end of the list, Apply steps back to the last page and
// returns the follow-up request to run.
func (c *Controller[T, F]) Apply(resp Response[T, F]) (applied bool, follow *Request[F]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if resp.Request.Gen != c.gen {
		return false, nil
	}
	c.loading = false
	if resp.Err != nil {
		c.err = resp.Err
		return true, nil
	}

	res := resp.Result
	if len(res.Items) == 0 && c.query.Page > 1 && !resp.Request.StepBack {
		last := res.TotalPages
		if last <= 0 && res.Total > 0 && c.query.PageSize > 0 {
			last = (res.Total + c.query.PageSize - 1) / c.query.PageSize
		}
		last = max(1, min(last, c.query.Page-1))
		c.query.Page = last
		next := c.beginLocked(true)
		return true, &next
	}

	c.err = nil
	c.loaded = true
	if res.Page <= 0 {
		res.Page = c.query.Page
	}
	res.Items = append([]T(nil), res.Items...)
	c.result = res
	return true, nil
}

// Do runs req and applies it, following a step-back if one is needed.
func (c *Controller[T, F]) Do(ctx context.Context, req Request[F]) error {
	for {
		resp := c.Run(ctx, req)
		applied, follow := c.Apply(resp)
		if !applied {
			return nil
		}
		if follow == nil {
			return resp.Err
		}
		req = *follow
	}
}

// Refresh synchronously reloads the current page.
func (c *Controller[T, F]) Refresh(ctx context.Context) error {
	return c.Do(ctx, c.Reload())
}

func (c *Controller[T, F]) beginLocked(stepBack bool) Request[F] {
	c.gen++
	c.loading = true
	return Request[F]{Gen: c.gen, Query: c.query, StepBack: stepBack}
}

package listview

import (
	"context"
	"errors"
	"testing"
)

type titleFilter struct {
	Title string
}

// fakeServer pages over rows the way the backend does.
type fakeServer struct {
	rows    []int
	calls   []Query[titleFilter]
	failing error
}

func (s *fakeServer) fetch(_ context.Context, q Query[titleFilter]) (Result[int], error) {
	s.calls = append(s.calls, q)
	if s.failing != nil {
		return Result[int]{}, s.failing
	}
	start := (q.Page - 1) * q.PageSize
	end := min(start+q.PageSize, len(s.rows))
	var items []int
	if start < len(s.rows) {
		items = s.rows[start:end]
	}
	pages := (len(s.rows) + q.PageSize - 1) / q.PageSize
	return Result[int]{Items: items, Total: len(s.rows), TotalPages: pages, Page: q.Page}, nil
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestSetPageSize_ResetsPageAndFetchesOnce(t *testing.T) {
	srv := &fakeServer{rows: seq(45)}
	c := New(srv.fetch, 10, titleFilter{})
	ctx := context.Background()

	if err := c.Do(ctx, c.SetPage(3)); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	srv.calls = nil

	if err := c.Do(ctx, c.SetPageSize(20)); err != nil {
		t.Fatalf("SetPageSize: %v", err)
	}
	if len(srv.calls) != 1 {
		t.Fatalf("fetches = %d, want exactly 1", len(srv.calls))
	}
	if got := srv.calls[0]; got.Page != 1 || got.PageSize != 20 {
		t.Fatalf("query = %+v, want page 1 size 20", got)
	}
	if q := c.Query(); q.Page != 1 || q.PageSize != 20 {
		t.Fatalf("controller query = %+v", q)
	}
}

func TestApplyFilter_ResetsPage(t *testing.T) {
	srv := &fakeServer{rows: seq(30)}
	c := New(srv.fetch, 10, titleFilter{})
	ctx := context.Background()
	_ = c.Do(ctx, c.SetPage(2))

	if err := c.Do(ctx, c.ApplyFilter(titleFilter{Title: "go"})); err != nil {
		t.Fatalf("ApplyFilter: %v", err)
	}
	last := srv.calls[len(srv.calls)-1]
	if last.Page != 1 || last.Filter.Title != "go" {
		t.Fatalf("query = %+v", last)
	}
}

func TestNextPrev_RespectBounds(t *testing.T) {
	srv := &fakeServer{rows: seq(25)}
	c := New(srv.fetch, 10, titleFilter{})
	ctx := context.Background()
	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if _, ok := c.Prev(); ok {
		t.Fatalf("Prev on page 1 should be refused")
	}
	for want := 2; want <= 3; want++ {
		req, ok := c.Next()
		if !ok {
			t.Fatalf("Next refused before page %d", want)
		}
		if err := c.Do(ctx, req); err != nil {
			t.Fatalf("Next: %v", err)
		}
		if got := c.Result().Page; got != want {
			t.Fatalf("page = %d, want %d", got, want)
		}
	}
	if _, ok := c.Next(); ok {
		t.Fatalf("Next past last page should be refused")
	}
	if got := c.Result().Items; len(got) != 5 {
		t.Fatalf("last page items = %v", got)
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	srv := &fakeServer{rows: seq(50)}
	c := New(srv.fetch, 10, titleFilter{})
	ctx := context.Background()

	slow := c.SetPage(2)
	fast := c.SetPage(4)

	fastResp := c.Run(ctx, fast)
	slowResp := c.Run(ctx, slow)

	if applied, _ := c.Apply(fastResp); !applied {
		t.Fatalf("newest response not applied")
	}
	if applied, _ := c.Apply(slowResp); applied {
		t.Fatalf("stale response applied")
	}
	if got := c.Result().Page; got != 4 {
		t.Fatalf("page = %d, want 4", got)
	}
	if c.Loading() {
		t.Fatalf("still loading after newest response")
	}
}

func TestFetchErrorKeepsPreviousPage(t *testing.T) {
	srv := &fakeServer{rows: seq(20)}
	c := New(srv.fetch, 10, titleFilter{})
	ctx := context.Background()
	_ = c.Refresh(ctx)

	boom := errors.New("network error")
	srv.failing = boom
	req, _ := c.Next()
	if err := c.Do(ctx, req); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if !errors.Is(c.Err(), boom) {
		t.Fatalf("Err() = %v", c.Err())
	}
	if got := c.Result(); got.Page != 1 || len(got.Items) != 10 {
		t.Fatalf("previous page lost: %+v", got)
	}

	srv.failing = nil
	if err := c.Refresh(ctx); err != nil || c.Err() != nil {
		t.Fatalf("recovery: %v / %v", err, c.Err())
	}
}

func TestAfterMutation_StepsBackFromEmptyLastPage(t *testing.T) {
	srv := &fakeServer{rows: seq(21)}
	c := New(srv.fetch, 10, titleFilter{})
	ctx := context.Background()
	if err := c.Do(ctx, c.SetPage(3)); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	if got := c.Result().Items; len(got) != 1 {
		t.Fatalf("page 3 = %v", got)
	}

	// Delete the only row on the last page.
	srv.rows = srv.rows[:20]
	srv.calls = nil
	if err := c.Do(ctx, c.AfterMutation()); err != nil {
		t.Fatalf("AfterMutation: %v", err)
	}
	if len(srv.calls) != 2 {
		t.Fatalf("fetches = %d, want 2", len(srv.calls))
	}
	res := c.Result()
	if res.Page != 2 || len(res.Items) != 10 {
		t.Fatalf("result = page %d with %d items, want page 2 with 10", res.Page, len(res.Items))
	}
}

func TestAfterMutation_EmptyListSettlesOnPageOne(t *testing.T) {
	srv := &fakeServer{rows: seq(11)}
	c := New(srv.fetch, 10, titleFilter{})
	ctx := context.Background()
	_ = c.Do(ctx, c.SetPage(2))

	srv.rows = nil
	if err := c.Do(ctx, c.AfterMutation()); err != nil {
		t.Fatalf("AfterMutation: %v", err)
	}
	if q := c.Query(); q.Page != 1 {
		t.Fatalf("page = %d, want 1", q.Page)
	}
	if len(c.Result().Items) != 0 {
		t.Fatalf("items = %v", c.Result().Items)
	}
}

func TestCyclePageSize(t *testing.T) {
	srv := &fakeServer{rows: seq(5)}
	c := New(srv.fetch, 0, titleFilter{})
	if got := c.Query().PageSize; got != DefaultPageSize {
		t.Fatalf("default page size = %d", got)
	}
	want := []int{20, 50, 100, 10}
	for _, w := range want {
		req := c.CyclePageSize()
		if req.Query.PageSize != w || req.Query.Page != 1 {
			t.Fatalf("cycle -> %+v, want size %d page 1", req.Query, w)
		}
	}
}

package clickup

import "context"

// UnknownCount marks TotalCount and TotalPages of a page whose total is not
// reported by the upstream.
const UnknownCount = -1

// Page is one page of a larger result set. Pages are values; treat them as
// immutable once built by one of the constructors.
type Page[T any] struct {
	Items           []T
	Page            int // Zero-based page index
	PageSize        int
	TotalCount      int // UnknownCount for cursor-style pages
	TotalPages      int // UnknownCount for cursor-style pages
	HasNextPage     bool
	HasPreviousPage bool
}

// NewPage builds a page for an endpoint that reports the total count.
// A negative page is treated as 0. With pageSize <= 0 the whole result is
// taken to be on this page.
func NewPage[T any](items []T, page, pageSize, totalCount int) Page[T] {
	if page < 0 {
		page = 0
	}
	if totalCount < 0 {
		totalCount = 0
	}

	p := Page[T]{
		Items:           nonNil(items),
		Page:            page,
		PageSize:        pageSize,
		TotalCount:      totalCount,
		HasPreviousPage: page > 0,
	}
	if pageSize > 0 {
		p.TotalPages = (totalCount + pageSize - 1) / pageSize
		p.HasNextPage = (page+1)*pageSize < totalCount
	} else if totalCount > 0 {
		p.TotalPages = 1
	}
	return p
}

// NewCursorPage builds a page for an endpoint that only reports whether
// another page exists. Totals are UnknownCount.
func NewCursorPage[T any](items []T, page, pageSize int, hasNext bool) Page[T] {
	if page < 0 {
		page = 0
	}
	return Page[T]{
		Items:           nonNil(items),
		Page:            page,
		PageSize:        pageSize,
		TotalCount:      UnknownCount,
		TotalPages:      UnknownCount,
		HasNextPage:     hasNext,
		HasPreviousPage: page > 0,
	}
}

// EmptyPage returns a page with no items and a known total of zero.
func EmptyPage[T any](page, pageSize int) Page[T] {
	return NewPage[T](nil, page, pageSize, 0)
}

// TotalKnown reports whether TotalCount and TotalPages are meaningful.
func (p Page[T]) TotalKnown() bool {
	return p.TotalCount != UnknownCount
}

// Len returns the number of items on this page.
func (p Page[T]) Len() int {
	return len(p.Items)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// PageFetcher loads one page by index.
type PageFetcher[T any] func(ctx context.Context, page int) (Page[T], error)

// PageIterator walks pages in order until one reports no next page.
// It is not safe for concurrent use.
type PageIterator[T any] struct {
	fetch PageFetcher[T]
	next  int
	done  bool
}

// NewPageIterator starts at page start.
func NewPageIterator[T any](fetch PageFetcher[T], start int) *PageIterator[T] {
	if start < 0 {
		start = 0
	}
	return &PageIterator[T]{fetch: fetch, next: start}
}

// Next fetches the next page. ok is false once the pages are exhausted.
// After an error the same page is fetched again on the next call.
func (it *PageIterator[T]) Next(ctx context.Context) (page Page[T], ok bool, err error) {
	if it.done {
		return Page[T]{}, false, nil
	}

	page, err = it.fetch(ctx, it.next)
	if err != nil {
		return Page[T]{}, false, err
	}

	if !page.HasNextPage || len(page.Items) == 0 {
		it.done = true
	}
	it.next = page.Page + 1
	return page, true, nil
}

// Collect gathers items from the remaining pages. When max > 0 it stops
// once max items are collected.
func (it *PageIterator[T]) Collect(ctx context.Context, max int) ([]T, error) {
	var all []T
	for {
		page, ok, err := it.Next(ctx)
		if err != nil {
			return all, err
		}
		if !ok {
			return all, nil
		}
		all = append(all, page.Items...)
		if max > 0 && len(all) >= max {
			return all[:max], nil
		}
	}
}

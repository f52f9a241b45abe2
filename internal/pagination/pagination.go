// Package pagination turns an item count, a page size and a requested page index
// into the window to fetch and the navigation metadata shown with it.
//
// A page index past the last page is clamped to the last page. Bounds and
// ComputePage apply the same clamp, so a caller that fetches the window
// described by Bounds always hands ComputePage the items for the page it reports.
package pagination

import (
	"strings"

	"todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"
)

type Window struct {
	PageIndex int
	PageCount int
	Offset    int
	Limit     int
}

// PageCount is ceil(total / size).
func PageCount(total, size int) (int, error) {
	if size <= 0 {
		return 0, errors.ErrInvalidPageSize
	}
	if total < 0 {
		return 0, errors.ErrInvalidCount
	}
	count := total / size
	if total%size != 0 {
		count++
	}
	return count, nil
}

// Bounds returns the clamped page index and the offset/limit of its window.
func Bounds(total, pageIndex, size int) (Window, error) {
	pageCount, err := PageCount(total, size)
	if err != nil {
		return Window{}, err
	}
	if pageIndex < 0 {
		return Window{}, errors.ErrInvalidPageIndex
	}
	pageIndex = clamp(pageIndex, pageCount)
	return Window{
		PageIndex: pageIndex,
		PageCount: pageCount,
		Offset:    pageIndex * size,
		Limit:     size,
	}, nil
}

func ComputePage(total, pageIndex, size int, window []models.Todo) (models.PageView, error) {
	w, err := Bounds(total, pageIndex, size)
	if err != nil {
		return models.PageView{}, err
	}

	items := window
	if w.PageCount == 0 || items == nil {
		items = []models.Todo{}
	}
	if len(items) > size {
		items = items[:size]
	}

	return models.PageView{
		Items:       items,
		PageCount:   w.PageCount,
		CurrentPage: w.PageIndex,
		HasPrevious: w.PageIndex > 0,
		HasNext:     w.PageIndex < w.PageCount-1,
		PageSize:    size,
		TotalItems:  total,
	}, nil
}

// Matches reports whether the title contains filter. Matching is case-sensitive
// and literal; an empty filter matches everything.
func Matches(item models.Todo, filter string) bool {
	return filter == "" || strings.Contains(item.Title, filter)
}

func clamp(pageIndex, pageCount int) int {
	if pageCount == 0 {
		return 0
	}
	if pageIndex > pageCount-1 {
		return pageCount - 1
	}
	return pageIndex
}

package variational

import (
	"context"
	"errors"
)

// ErrStopPagination can be returned by a visitor to end Paginate early
// without an error.
var ErrStopPagination = errors.New("variational: stop pagination")

// PageFunc fetches the page identified by cursor; a nil cursor is the first page.
type PageFunc[T any] func(ctx context.Context, cursor Cursor) (*Page[T], error)

// Paginate calls visit for every item across pages, following next_page
// until the server returns an empty cursor.
func Paginate[T any](ctx context.Context, start Cursor, fetch PageFunc[T], visit func(T) error) error {
	cursor := start
	for {
		page, err := fetch(ctx, cursor)
		if err != nil {
			return err
		}
		for _, item := range page.Result {
			if err := visit(item); err != nil {
				if errors.Is(err, ErrStopPagination) {
					return nil
				}
				return err
			}
		}
		if !page.HasNext() {
			return nil
		}
		cursor = page.Pagination.NextPage
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// CollectAll gathers every item of a paginated listing.
func CollectAll[T any](ctx context.Context, fetch PageFunc[T]) ([]T, error) {
	var out []T
	err := Paginate(ctx, nil, fetch, func(item T) error {
		out = append(out, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

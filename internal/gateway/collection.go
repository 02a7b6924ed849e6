package gateway

import (
	"context"
	"fmt"
)

// Collection is a REST resource with the backends' list/get/create/update/delete shape
type Collection[T any] struct {
	client *Client
	path   string
}

func newCollection[T any](c *Client, path string) Collection[T] {
	return Collection[T]{client: c, path: path}
}

// List fetches the tenant's items; cid "" lists across tenants
func (c Collection[T]) List(ctx context.Context, cid string) ([]T, error) {
	items := []T{}
	if err := c.client.get(ctx, c.path, cidQuery(cid), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Get fetches a single item by id
func (c Collection[T]) Get(ctx context.Context, id int64) (*T, error) {
	var item T
	if err := c.client.get(ctx, c.itemPath(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create stores a new item
func (c Collection[T]) Create(ctx context.Context, item *T) error {
	return c.client.post(ctx, c.path, nil, item, nil)
}

// Update replaces the item with the given id
func (c Collection[T]) Update(ctx context.Context, id int64, item *T) error {
	return c.client.put(ctx, c.itemPath(id), item, nil)
}

// Delete removes the item with the given id
func (c Collection[T]) Delete(ctx context.Context, id int64) error {
	return c.client.delete(ctx, c.itemPath(id))
}

func (c Collection[T]) itemPath(id int64) string {
	return fmt.Sprintf("%s/%d", c.path, id)
}

package service

import (
	"context"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

// ChildLister returns the direct children of a category
type ChildLister interface {
	Children(ctx context.Context, parentID uuid.UUID) ([]*domain.Category, error)
}

// SubtreeIDs returns rootID followed by the ids of all its descendants in
// breadth-first order. Each category appears once even if the stored
// hierarchy contains a cycle.
func SubtreeIDs(ctx context.Context, categories ChildLister, rootID uuid.UUID) ([]uuid.UUID, error) {
	visited := map[uuid.UUID]struct{}{rootID: {}}
	ids := []uuid.UUID{rootID}
	queue := []uuid.UUID{rootID}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		parent := queue[0]
		queue = queue[1:]

		children, err := categories.Children(ctx, parent)
		if err != nil {
			return nil, fmt.Errorf("failed to expand category %s: %w", parent, err)
		}

		for _, child := range children {
			if _, seen := visited[child.ID]; seen {
				continue
			}
			visited[child.ID] = struct{}{}
			ids = append(ids, child.ID)
			queue = append(queue, child.ID)
		}
	}

	return ids, nil
}

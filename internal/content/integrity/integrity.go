// Copyright (c) 2026 Scriptorium. All rights reserved.

/*
Package integrity gates permanent deletion on the catalog's dependency edges.

A record may only leave the database when nothing references it anymore.
The rules are the declared parent→child edges, not the database schema: the
checker walks the edges for the entity, counts referencing child rows, and
reports the first populated edge as DATA_LINKED. Archived children count
too, because their foreign keys are as live as anyone's.
*/
package integrity

import (
	"context"

	"github.com/verseworks/scriptorium/internal/content/catalog"
	"github.com/verseworks/scriptorium/internal/platform/apperr"
)

// ChildCounter counts rows referencing a parent through one dependency
// edge. The store's repository satisfies it.
type ChildCounter interface {
	CountChildren(ctx context.Context, edge catalog.Edge, parentID int64) (int, error)
}

// Checker verifies that a record is unreferenced before permanent deletion.
type Checker struct {
	cat     *catalog.Catalog
	counter ChildCounter
}

// NewChecker constructs a Checker over the catalog's edge table.
func NewChecker(cat *catalog.Catalog, counter ChildCounter) *Checker {
	return &Checker{cat: cat, counter: counter}
}

// Check returns nil when no child row references the record, or a
// DATA_LINKED error naming the first dependent entity found. Edges are
// visited in declaration order, so the reported dependent is deterministic.
//
// A nil result is advisory: the delete transaction re-verifies the edges
// under lock, and the foreign keys backstop both.
func (c *Checker) Check(ctx context.Context, desc *catalog.Descriptor, id int64) error {
	for _, edge := range c.cat.ChildEdges(desc.Name) {
		count, err := c.counter.CountChildren(ctx, edge, id)
		if err != nil {
			return err
		}
		if count > 0 {
			child, ok := c.cat.Entity(edge.Child)
			if !ok {
				return apperr.DataLinked("records")
			}
			return apperr.DataLinked(child.Model)
		}
	}
	return nil
}

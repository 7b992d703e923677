package graph

import (
	"context"
)

// DefaultWipeBatch is the inner transaction size used by Wipe
const DefaultWipeBatch = 10000

// InitSchema creates the uniqueness constraints, then the indexes. It is
// meant for a fresh store: any rule that already exists stops the run with
// a SchemaConflict error and the remaining rules are not attempted.
func (c *Client) InitSchema(ctx context.Context) error {
	var b SchemaBuilder
	for _, rule := range Constraints {
		q, err := b.CreateConstraint(rule)
		if err != nil {
			return err
		}
		if _, err := c.AutoCommit(ctx, OpSchema, q, nil); err != nil {
			return err
		}
		c.logger.Info("constraint created", "name", rule.Name, "label", rule.Label, "property", rule.Property)
	}
	for _, rule := range Indexes {
		q, err := b.CreateIndex(rule)
		if err != nil {
			return err
		}
		if _, err := c.AutoCommit(ctx, OpSchema, q, nil); err != nil {
			return err
		}
		c.logger.Info("index created", "name", rule.Name, "label", rule.Label, "property", rule.Property)
	}
	return nil
}

// DropSchema drops the indexes, then the constraints. Dropping a rule that
// does not exist is a SchemaConflict, same as creating one twice.
func (c *Client) DropSchema(ctx context.Context) error {
	var b SchemaBuilder
	for _, rule := range Indexes {
		q, err := b.DropIndex(rule)
		if err != nil {
			return err
		}
		if _, err := c.AutoCommit(ctx, OpSchema, q, nil); err != nil {
			return err
		}
		c.logger.Info("index dropped", "name", rule.Name)
	}
	for _, rule := range Constraints {
		q, err := b.DropConstraint(rule)
		if err != nil {
			return err
		}
		if _, err := c.AutoCommit(ctx, OpSchema, q, nil); err != nil {
			return err
		}
		c.logger.Info("constraint dropped", "name", rule.Name)
	}
	return nil
}

// Wipe detaches and deletes every node. Must not run concurrently with
// queries or loads.
func (c *Client) Wipe(ctx context.Context, batchSize int) (int64, error) {
	if batchSize == 0 {
		batchSize = DefaultWipeBatch
	}
	q, err := wipeQuery(batchSize)
	if err != nil {
		return 0, err
	}
	summary, err := c.AutoCommit(ctx, OpWipe, q, nil)
	if err != nil {
		return 0, err
	}
	deleted := int64(summary.Counters().NodesDeleted())
	c.logger.Info("graph wiped", "nodes_deleted", deleted)
	return deleted, nil
}

// PruneOrphans deletes every node without relationships and returns how
// many were removed
func (c *Client) PruneOrphans(ctx context.Context) (int64, error) {
	q := `
		MATCH (n)
		WHERE NOT (n)--()
		CALL { WITH n DELETE n } IN TRANSACTIONS OF 10000 ROWS`
	summary, err := c.AutoCommit(ctx, OpPrune, q, nil)
	if err != nil {
		return 0, err
	}
	deleted := int64(summary.Counters().NodesDeleted())
	c.logger.Info("orphans pruned", "nodes_deleted", deleted)
	return deleted, nil
}

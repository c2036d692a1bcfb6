package store

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schema string

// Migrate creates any missing tables. It is safe to run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.Db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	s.log.Info("schema applied")
	return nil
}

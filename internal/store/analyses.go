package store

import (
	"context"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
)

// AnalysisRepository implements domain.AnalysisRepository.
type AnalysisRepository struct {
	s *Store
}

func NewAnalysisRepository(s *Store) *AnalysisRepository {
	return &AnalysisRepository{s: s}
}

// Upsert relies on xmax being zero only for freshly inserted rows.
func (r *AnalysisRepository) Upsert(ctx context.Context, a *domain.Analysis) (bool, error) {
	var inserted bool
	err := r.s.conn(ctx).QueryRow(ctx,
		`INSERT INTO analyses
			(user_id, about, type, period_start, period_end, description, current_total, previous_total)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, about, type, period_start) DO UPDATE SET
			period_end = EXCLUDED.period_end,
			description = EXCLUDED.description,
			current_total = EXCLUDED.current_total,
			previous_total = EXCLUDED.previous_total,
			updated_at = NOW()
		 RETURNING id, created_at, updated_at, (xmax = 0)`,
		a.UserID, a.About, a.Type, a.PeriodStart, a.PeriodEnd, a.Description, a.CurrentTotal, a.PreviousTotal,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt, &inserted)
	if err != nil {
		return false, domain.NewStorageError("upsert analysis", err)
	}
	return inserted, nil
}

func (r *AnalysisRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Analysis, error) {
	rows, err := r.s.conn(ctx).Query(ctx,
		`SELECT id, user_id, about, type, period_start, period_end, description,
			current_total, previous_total, created_at, updated_at
		 FROM analyses WHERE user_id = $1 ORDER BY period_start DESC, id DESC`, userID)
	if err != nil {
		return nil, domain.NewStorageError("list analyses", err)
	}
	defer rows.Close()

	analyses := []domain.Analysis{}
	for rows.Next() {
		var a domain.Analysis
		if err := rows.Scan(&a.ID, &a.UserID, &a.About, &a.Type, &a.PeriodStart, &a.PeriodEnd,
			&a.Description, &a.CurrentTotal, &a.PreviousTotal, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, domain.NewStorageError("scan analysis", err)
		}
		analyses = append(analyses, a)
	}
	return analyses, domain.NewStorageError("list analyses", rows.Err())
}

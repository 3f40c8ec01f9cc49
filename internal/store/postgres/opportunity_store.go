package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crosslisted/arbscan/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates a new OpportunityStore backed by the given
// connection pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

// Insert stores a detected opportunity.
func (s *OpportunityStore) Insert(ctx context.Context, opp domain.Opportunity) error {
	const query = `
		INSERT INTO opportunity_history (
			id, platform_a, platform_b, market_a_id, market_b_id,
			title, direction, profit_pct, total_cost, similarity, detected_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11
		)
		ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		opp.ID,
		string(opp.Pair.A.Platform), string(opp.Pair.B.Platform),
		opp.Pair.A.ID, opp.Pair.B.ID,
		opp.Pair.A.Title, string(opp.Direction),
		opp.ProfitPct, opp.TotalCost, opp.Pair.Similarity,
		opp.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// ListRecent returns the most recently detected opportunities ordered by
// detection time, newest first.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.OpportunityRecord, error) {
	query := `
		SELECT platform_a, platform_b, market_a_id, market_b_id,
			title, direction, profit_pct, total_cost, similarity, detected_at
		FROM opportunity_history
		ORDER BY detected_at DESC`
	args := []any{}

	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities: %w", err)
	}
	defer rows.Close()

	var records []domain.OpportunityRecord
	for rows.Next() {
		var rec domain.OpportunityRecord
		if err := rows.Scan(
			&rec.PlatformA, &rec.PlatformB, &rec.MarketAID, &rec.MarketBID,
			&rec.Title, &rec.Direction, &rec.ProfitPct, &rec.TotalCost,
			&rec.Similarity, &rec.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities rows: %w", err)
	}
	return records, nil
}

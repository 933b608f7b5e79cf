package pricing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSource loads rule records from the round_off_rules table. The
// table is maintained by the back office; this service only reads it.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource constructs a PostgresSource.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

const listRulesQuery = `SELECT COALESCE(from_range, 0)::float8, COALESCE(to_range, 0)::float8, COALESCE(prices, '{}')::float8[]
FROM round_off_rules
WHERE is_active
ORDER BY sort_order, id`

// LoadRules implements RuleSource.
func (s *PostgresSource) LoadRules(ctx context.Context) ([]RuleRecord, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNoSource
	}
	rows, err := s.pool.Query(ctx, listRulesQuery)
	if err != nil {
		return nil, fmt.Errorf("pricing: query rules: %w", err)
	}
	records, err := pgx.CollectRows(rows, scanRuleRecord)
	if err != nil {
		return nil, fmt.Errorf("pricing: scan rules: %w", err)
	}
	return records, nil
}

func scanRuleRecord(row pgx.CollectableRow) (RuleRecord, error) {
	var (
		from, to float64
		prices   []float64
	)
	if err := row.Scan(&from, &to, &prices); err != nil {
		return RuleRecord{}, err
	}
	rec := RuleRecord{
		FromRange: Number{Value: from, Valid: true},
		ToRange:   Number{Value: to, Valid: true},
		Prices:    make([]Number, 0, len(prices)),
	}
	for _, p := range prices {
		rec.Prices = append(rec.Prices, Number{Value: p, Valid: true})
	}
	return rec, nil
}

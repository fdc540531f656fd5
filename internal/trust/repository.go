// internal/trust/repository.go

package trust

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var ErrStatsNotFound = errors.New("activity stats not found")

type Repository interface {
	GetActivityStats(ctx context.Context, userID int64) (*ActivityStats, error)
	GetBadges(ctx context.Context, userID int64) ([]Badge, error)
	// AddBadges is insert-only; existing badges are left untouched.
	AddBadges(ctx context.Context, userID int64, badges []Badge) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetActivityStats(ctx context.Context, userID int64) (*ActivityStats, error) {
	query := `
        SELECT user_id, dates_completed, dates_cancelled, no_shows,
               events_attended, events_hosted, vouches_received,
               reviews_received, average_rating, reports_received, reports_upheld,
               photo_verified, id_verified, sti_disclosures, days_since_sti_disclosure,
               profile_completeness, response_rate, active_days_last_30,
               days_on_platform, updated_at
        FROM user_activity_stats
        WHERE user_id = $1`

	var stats ActivityStats
	err := r.db.GetContext(ctx, &stats, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrStatsNotFound
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *postgresRepository) GetBadges(ctx context.Context, userID int64) ([]Badge, error) {
	query := `SELECT badge FROM user_badges WHERE user_id = $1 ORDER BY badge`

	var names []string
	if err := r.db.SelectContext(ctx, &names, query, userID); err != nil {
		return nil, err
	}

	badges := make([]Badge, len(names))
	for i, n := range names {
		badges[i] = Badge(n)
	}
	return badges, nil
}

func (r *postgresRepository) AddBadges(ctx context.Context, userID int64, badges []Badge) error {
	if len(badges) == 0 {
		return nil
	}

	names := make([]string, len(badges))
	for i, b := range badges {
		names[i] = string(b)
	}

	query := `
        INSERT INTO user_badges (user_id, badge, earned_at)
        SELECT $1, b, NOW() FROM unnest($2::text[]) AS b
        ON CONFLICT (user_id, badge) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, userID, pq.Array(names))
	return err
}

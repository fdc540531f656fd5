// internal/behavior/repository.go

package behavior

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrTasteNotFound = errors.New("taste profile not found")

type Repository interface {
	// View events
	AppendEvent(ctx context.Context, event *ViewEvent) error
	GetEvents(ctx context.Context, userID int64) ([]ViewEvent, error)

	// Taste profiles
	GetTasteProfile(ctx context.Context, userID int64) (*TasteProfile, error)
	SaveTasteProfile(ctx context.Context, profile *TasteProfile) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) AppendEvent(ctx context.Context, event *ViewEvent) error {
	query := `
        INSERT INTO view_events (
            id, subject_user_id, viewed_user_id, dwell_ms, action, snapshot, created_at
        ) VALUES (
            :id, :subject_user_id, :viewed_user_id, :dwell_ms, :action, :snapshot, :created_at
        )`

	_, err := r.db.NamedExecContext(ctx, query, event)
	return err
}

// GetEvents returns the full log for userID, oldest first.
func (r *postgresRepository) GetEvents(ctx context.Context, userID int64) ([]ViewEvent, error) {
	query := `
        SELECT id, subject_user_id, viewed_user_id, dwell_ms, action, snapshot, created_at
        FROM view_events
        WHERE subject_user_id = $1
        ORDER BY created_at ASC, id ASC`

	events := []ViewEvent{}
	if err := r.db.SelectContext(ctx, &events, query, userID); err != nil {
		return nil, fmt.Errorf("select view events: %w", err)
	}
	return events, nil
}

func (r *postgresRepository) GetTasteProfile(ctx context.Context, userID int64) (*TasteProfile, error) {
	query := `SELECT profile FROM taste_profiles WHERE user_id = $1`

	var profile TasteProfile
	err := r.db.QueryRowxContext(ctx, query, userID).Scan(&profile)
	if err == sql.ErrNoRows {
		return nil, ErrTasteNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *postgresRepository) SaveTasteProfile(ctx context.Context, profile *TasteProfile) error {
	query := `
        INSERT INTO taste_profiles (user_id, profile, confidence_score, sample_count, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id) DO UPDATE SET
            profile = EXCLUDED.profile,
            confidence_score = EXCLUDED.confidence_score,
            sample_count = EXCLUDED.sample_count,
            updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		profile.UserID, profile, profile.ConfidenceScore, profile.SampleCount, time.Now().UTC(),
	)
	return err
}

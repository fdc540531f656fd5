// internal/discovery/repository.go

package discovery

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/imadgeboyega/kiekky-scoring/internal/matching"
)

var ErrProfileNotFound = errors.New("profile not found")

type Repository interface {
	GetProfile(ctx context.Context, userID int64) (*matching.Profile, error)
	// ListCandidates returns up to limit discoverable profiles other than
	// viewerID and the ids in exclude. The exclusion happens before the limit.
	ListCandidates(ctx context.Context, viewerID int64, exclude []int64, limit int) ([]*matching.Profile, error)
	SeenProfileIDs(ctx context.Context, viewerID int64) (map[int64]struct{}, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

type profileRow struct {
	UserID         int64          `db:"user_id"`
	DisplayName    string         `db:"display_name"`
	Age            sql.NullInt64  `db:"age"`
	City           sql.NullString `db:"city"`
	Bio            sql.NullString `db:"bio"`
	IntentIDs      pq.StringArray `db:"intent_ids"`
	PacePreference sql.NullString `db:"pace_preference"`
	ResponseStyle  sql.NullString `db:"response_style"`
	PhotoCount     int            `db:"photo_count"`
	VirtualOnly    bool           `db:"virtual_only"`
	IsVerified     bool           `db:"is_verified"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (r profileRow) toProfile() *matching.Profile {
	intents := []string(r.IntentIDs)
	if intents == nil {
		intents = []string{}
	}
	return &matching.Profile{
		ID:             r.UserID,
		DisplayName:    r.DisplayName,
		Age:            int(r.Age.Int64),
		City:           r.City.String,
		Bio:            r.Bio.String,
		IntentIDs:      intents,
		PacePreference: matching.Pace(r.PacePreference.String),
		ResponseStyle:  matching.ResponseStyle(r.ResponseStyle.String),
		PhotoCount:     r.PhotoCount,
		VirtualOnly:    r.VirtualOnly,
		IsVerified:     r.IsVerified,
		UpdatedAt:      r.UpdatedAt,
	}
}

const profileColumns = `
    user_id, display_name, age, city, bio, intent_ids, pace_preference,
    response_style, photo_count, virtual_only, is_verified, updated_at`

func (r *postgresRepository) GetProfile(ctx context.Context, userID int64) (*matching.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`

	var row profileRow
	err := r.db.GetContext(ctx, &row, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toProfile(), nil
}

func (r *postgresRepository) ListCandidates(ctx context.Context, viewerID int64, exclude []int64, limit int) ([]*matching.Profile, error) {
	if exclude == nil {
		exclude = []int64{}
	}

	query := `SELECT ` + profileColumns + `
        FROM profiles
        WHERE user_id <> $1
          AND user_id <> ALL($2)
          AND is_discoverable = TRUE
        ORDER BY updated_at DESC, user_id ASC
        LIMIT $3`

	var rows []profileRow
	if err := r.db.SelectContext(ctx, &rows, query, viewerID, pq.Array(exclude), limit); err != nil {
		return nil, err
	}

	profiles := make([]*matching.Profile, len(rows))
	for i, row := range rows {
		profiles[i] = row.toProfile()
	}
	return profiles, nil
}

func (r *postgresRepository) SeenProfileIDs(ctx context.Context, viewerID int64) (map[int64]struct{}, error) {
	query := `
        SELECT COALESCE(array_agg(DISTINCT viewed_user_id), '{}')
        FROM view_events
        WHERE subject_user_id = $1`

	var ids pq.Int64Array
	if err := r.db.QueryRowxContext(ctx, query, viewerID).Scan(&ids); err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return seen, nil
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/imadgeboyega/kiekky-scoring/internal/common/logger"
)

var migrations = []string{
	// Profile projection read by discovery. Owned by the profile service,
	// created here so a fresh database can serve feeds.
	`CREATE TABLE IF NOT EXISTS profiles (
        user_id BIGINT PRIMARY KEY,
        display_name VARCHAR(100) NOT NULL DEFAULT '',
        age INT,
        city VARCHAR(100),
        bio TEXT,
        intent_ids TEXT[] NOT NULL DEFAULT '{}',
        pace_preference VARCHAR(20),
        response_style VARCHAR(20),
        photo_count INT NOT NULL DEFAULT 0,
        virtual_only BOOLEAN NOT NULL DEFAULT FALSE,
        is_verified BOOLEAN NOT NULL DEFAULT FALSE,
        is_discoverable BOOLEAN NOT NULL DEFAULT TRUE,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,

	`CREATE INDEX IF NOT EXISTS idx_profiles_discoverable
        ON profiles(updated_at DESC) WHERE is_discoverable`,

	// Append-only view log
	`CREATE TABLE IF NOT EXISTS view_events (
        id UUID PRIMARY KEY,
        subject_user_id BIGINT NOT NULL,
        viewed_user_id BIGINT NOT NULL,
        dwell_ms BIGINT NOT NULL DEFAULT 0,
        action VARCHAR(20) NOT NULL,
        snapshot JSONB NOT NULL,
        created_at TIMESTAMPTZ NOT NULL,
        CHECK (subject_user_id <> viewed_user_id)
    )`,

	`CREATE INDEX IF NOT EXISTS idx_view_events_subject
        ON view_events(subject_user_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS taste_profiles (
        user_id BIGINT PRIMARY KEY,
        profile JSONB NOT NULL,
        confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
        sample_count INT NOT NULL DEFAULT 0,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,

	`CREATE TABLE IF NOT EXISTS user_activity_stats (
        user_id BIGINT PRIMARY KEY,
        dates_completed INT NOT NULL DEFAULT 0,
        dates_cancelled INT NOT NULL DEFAULT 0,
        no_shows INT NOT NULL DEFAULT 0,
        events_attended INT NOT NULL DEFAULT 0,
        events_hosted INT NOT NULL DEFAULT 0,
        vouches_received INT NOT NULL DEFAULT 0,
        reviews_received INT NOT NULL DEFAULT 0,
        average_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
        reports_received INT NOT NULL DEFAULT 0,
        reports_upheld INT NOT NULL DEFAULT 0,
        photo_verified BOOLEAN NOT NULL DEFAULT FALSE,
        id_verified BOOLEAN NOT NULL DEFAULT FALSE,
        sti_disclosures INT NOT NULL DEFAULT 0,
        days_since_sti_disclosure INT NOT NULL DEFAULT -1,
        profile_completeness DOUBLE PRECISION NOT NULL DEFAULT 0,
        response_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
        active_days_last_30 INT NOT NULL DEFAULT 0,
        days_on_platform INT NOT NULL DEFAULT 0,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,

	// Badges are never revoked, so rows are only ever inserted
	`CREATE TABLE IF NOT EXISTS user_badges (
        user_id BIGINT NOT NULL,
        badge VARCHAR(50) NOT NULL,
        earned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        PRIMARY KEY (user_id, badge)
    )`,
}

func runMigrations(ctx context.Context, db *sqlx.DB, log *logger.Logger) error {
	for i, migration := range migrations {
		log.Debug("Running migration", "step", i+1, "total", len(migrations))
		if _, err := db.ExecContext(ctx, migration); err != nil {
			// Don't fail on indexes that already exist
			if !strings.Contains(err.Error(), "already exists") {
				return fmt.Errorf("migration %d failed: %w", i+1, err)
			}
			log.Debug("Migration skipped (already exists)", "step", i+1)
		}
	}
	log.Info("Migrations complete", "count", len(migrations))
	return nil
}

package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createChannelTables creates tracked channels and their raw video rows.
func createChannelTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "001_create_channels",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS channels (
					id VARCHAR(64) PRIMARY KEY,
					title VARCHAR(300) NOT NULL DEFAULT '',
					subscribers BIGINT NOT NULL DEFAULT 0,
					competitor BOOLEAN NOT NULL DEFAULT FALSE,
					last_refreshed_at TIMESTAMPTZ,
					created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS video_metrics (
					channel_id VARCHAR(64) NOT NULL REFERENCES channels(id) ON DELETE CASCADE,
					video_id VARCHAR(64) NOT NULL,
					title VARCHAR(500) NOT NULL DEFAULT '',
					tags TEXT[],
					published_at TIMESTAMPTZ NOT NULL,
					duration_seconds BIGINT NOT NULL DEFAULT 0,
					views BIGINT NOT NULL DEFAULT 0,
					likes BIGINT NOT NULL DEFAULT 0,
					comments BIGINT NOT NULL DEFAULT 0,
					updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,

					PRIMARY KEY (channel_id, video_id),
					CONSTRAINT chk_video_counts CHECK (views >= 0 AND likes >= 0 AND comments >= 0)
				);
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_video_metrics_published_at
				ON video_metrics(channel_id, published_at);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			if err := tx.Exec("DROP TABLE IF EXISTS video_metrics;").Error; err != nil {
				return err
			}
			return tx.Exec("DROP TABLE IF EXISTS channels;").Error
		},
	}
}

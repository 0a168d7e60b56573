package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// widenFeedText lifts length limits from columns filled by provider feeds.
func widenFeedText() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "003_widen_video_text",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				ALTER TABLE video_metrics
					ALTER COLUMN video_id TYPE TEXT,
					ALTER COLUMN title TYPE TEXT;
				ALTER TABLE channels
					ALTER COLUMN title TYPE TEXT;
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`
				ALTER TABLE video_metrics
					ALTER COLUMN video_id TYPE VARCHAR(64),
					ALTER COLUMN title TYPE VARCHAR(500);
				ALTER TABLE channels
					ALTER COLUMN title TYPE VARCHAR(300);
			`).Error
		},
	}
}

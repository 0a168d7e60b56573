package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createReportTables stores serialized analyses and generated narratives.
// Reports are history only; channel rows may be deleted independently.
func createReportTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "002_create_reports",
		Migrate: func(tx *gorm.DB) error {
			statements := []string{
				`CREATE TABLE IF NOT EXISTS analysis_reports (
					id UUID PRIMARY KEY,
					channel_id VARCHAR(64) NOT NULL,
					kind VARCHAR(20) NOT NULL,
					payload JSONB NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
				);`,
				`CREATE INDEX IF NOT EXISTS idx_analysis_reports_latest
				ON analysis_reports(channel_id, kind, created_at DESC);`,
				`CREATE TABLE IF NOT EXISTS narratives (
					id UUID PRIMARY KEY,
					channel_id VARCHAR(64) NOT NULL,
					topic VARCHAR(300) NOT NULL DEFAULT '',
					model VARCHAR(100) NOT NULL,
					content TEXT NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
				);`,
				`CREATE INDEX IF NOT EXISTS idx_narratives_channel
				ON narratives(channel_id, created_at DESC);`,
			}

			for _, stmt := range statements {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			if err := tx.Exec("DROP TABLE IF EXISTS narratives;").Error; err != nil {
				return err
			}
			return tx.Exec("DROP TABLE IF EXISTS analysis_reports;").Error
		},
	}
}

package migrations

import "database/sql"

func init() {
	register(Migration{
		Version: 1,
		Name:    "create_build_runs",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS build_runs (
					id TEXT PRIMARY KEY,
					profile TEXT NOT NULL,
					target TEXT NOT NULL,
					subtarget TEXT NOT NULL,
					version TEXT NOT NULL,
					status TEXT NOT NULL,
					error_message TEXT NOT NULL DEFAULT '',
					artifact_count INTEGER NOT NULL DEFAULT 0,
					started_at DATETIME NOT NULL,
					completed_at DATETIME
				)
			`)
			if err != nil {
				return err
			}

			_, err = tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_build_runs_started_at
				ON build_runs(started_at DESC)
			`)
			return err
		},
	})
}

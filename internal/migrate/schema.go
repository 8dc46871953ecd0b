package migrate

import (
	"database/sql"

	"choromap/internal/logger"
)

// 背景：首次运行自动创建项目与统计表
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _map_projects (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            geography JSONB,
            candidates JSONB NOT NULL DEFAULT '[]'::jsonb,
            results JSONB NOT NULL DEFAULT '[]'::jsonb,
            settings JSONB NOT NULL DEFAULT '{}'::jsonb,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_map_projects_updated ON _map_projects(updated_at DESC)`,
		`CREATE TABLE IF NOT EXISTS _map_stats_daily (
            day DATE PRIMARY KEY,
            imports BIGINT NOT NULL DEFAULT 0,
            exports BIGINT NOT NULL DEFAULT 0
        )`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}

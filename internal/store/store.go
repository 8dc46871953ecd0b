// 包 store: 提供与 PostgreSQL 的数据访问层，包含项目存取与导入导出统计
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"choromap/internal/logger"

	_ "github.com/lib/pq"
)

var ErrProjectNotFound = errors.New("store: project not found")

// Store: 数据库访问入口，持有连接池并提供项目/统计接口
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Open: 使用 DSN 打开数据库连接并配置连接池参数
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	return &Store{db: db}, nil
}

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Project: 一份保存的地图工作区（规范化后的要素集合 + 名单 + 结果 + 配置）
type Project struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Geography  json.RawMessage `json:"geography,omitempty"`
	Candidates json.RawMessage `json:"candidates"`
	Results    json.RawMessage `json:"results"`
	Settings   json.RawMessage `json:"settings"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Summary: 列表项，不含大字段
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Regions   int       `json:"regions"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// orEmpty：空字段写入 JSONB 时的默认值；以字符串传参（pq 会把 []byte 按 bytea 编码）
func orEmpty(b json.RawMessage, def string) string {
	if len(b) == 0 {
		return def
	}
	return string(b)
}

// SaveProject: 以 ID 为键整体覆盖
func (s *Store) SaveProject(ctx context.Context, p Project) error {
	if p.ID == "" {
		return errors.New("store: project id required")
	}
	var geoArg any
	if len(p.Geography) > 0 {
		geoArg = string(p.Geography)
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO _map_projects(id, name, geography, candidates, results, settings, updated_at)
        VALUES($1,$2,$3,$4,$5,$6,now())
        ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, geography=EXCLUDED.geography, candidates=EXCLUDED.candidates,
            results=EXCLUDED.results, settings=EXCLUDED.settings, updated_at=now()`,
		p.ID, p.Name, geoArg, orEmpty(p.Candidates, "[]"), orEmpty(p.Results, "[]"), orEmpty(p.Settings, "{}"),
	)
	if err != nil {
		return fmt.Errorf("store: save project %s: %w", p.ID, err)
	}
	logger.L().Debug("project_saved", "id", p.ID, "geography_bytes", len(p.Geography))
	return nil
}

func (s *Store) LoadProject(ctx context.Context, id string) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, geography, candidates, results, settings, updated_at
        FROM _map_projects WHERE id=$1`, id)
	var p Project
	var g, c, r, st []byte
	if err := row.Scan(&p.ID, &p.Name, &g, &c, &r, &st, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	p.Geography, p.Candidates, p.Results, p.Settings = g, c, r, st
	return &p, nil
}

// 文档注释：项目列表（按更新时间倒序）
// 约束：区域数量取自 geography->'features' 的长度，未保存地理数据的项目为 0。
func (s *Store) ListProjects(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, COALESCE(jsonb_array_length(geography->'features'), 0), updated_at
        FROM _map_projects ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Summary{}
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ID, &sm.Name, &sm.Regions, &sm.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM _map_projects WHERE id=$1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// StatKind: 统计维度
type StatKind string

const (
	StatImports StatKind = "imports"
	StatExports StatKind = "exports"
)

// IncrStats: 递增当日计数；写入失败只记录日志
func (s *Store) IncrStats(ctx context.Context, kind StatKind) error {
	var q string
	switch kind {
	case StatImports:
		q = "INSERT INTO _map_stats_daily(day, imports) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET imports=_map_stats_daily.imports+1"
	case StatExports:
		q = "INSERT INTO _map_stats_daily(day, exports) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET exports=_map_stats_daily.exports+1"
	default:
		return fmt.Errorf("store: unknown stat kind %q", kind)
	}
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		logger.L().Warn("stats_incr_fail", "kind", kind, "err", err)
		return err
	}
	logger.L().Debug("stats_incr", "kind", kind)
	return nil
}

// Totals: 统计返回结构，包含累计与当日的导入/导出次数
type Totals struct {
	Imports      int64 `json:"imports"`
	Exports      int64 `json:"exports"`
	TodayImports int64 `json:"todayImports"`
	TodayExports int64 `json:"todayExports"`
	Projects     int64 `json:"projects"`
}

// GetTotals: 读取累计与当日次数，用于接口返回
func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(SUM(imports),0), COALESCE(SUM(exports),0) FROM _map_stats_daily")
	if err := row.Scan(&t.Imports, &t.Exports); err != nil {
		return nil, err
	}
	row2 := s.db.QueryRowContext(ctx, "SELECT imports, exports FROM _map_stats_daily WHERE day=current_date")
	_ = row2.Scan(&t.TodayImports, &t.TodayExports)
	row3 := s.db.QueryRowContext(ctx, "SELECT count(*) FROM _map_projects")
	_ = row3.Scan(&t.Projects)
	logger.L().Debug("stats_totals", "imports", t.Imports, "exports", t.Exports, "projects", t.Projects)
	return &t, nil
}

package dao

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"path"
	"sort"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/metrics"
	"github.com/lk2023060901/lifesim/pkg/logger"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFS embed.FS

// Dialect 数据库方言
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ErrUnknownDialect 不支持的方言
var ErrUnknownDialect = errors.New("dao: unknown dialect")

// Store 共享的 database/sql 句柄与 SQL 构建器
// postgres 通过 pgx stdlib 接入，sqlite 通过 modernc 驱动接入
type Store struct {
	db      *sql.DB
	dialect Dialect
	sb      squirrel.StatementBuilderType
	logger  logger.Logger
	metrics *metrics.Metrics
}

// NewStore 创建 Store
func NewStore(db *sql.DB, dialect Dialect, l logger.Logger, m *metrics.Metrics) (*Store, error) {
	var format squirrel.PlaceholderFormat
	switch dialect {
	case DialectPostgres:
		format = squirrel.Dollar
	case DialectSQLite:
		format = squirrel.Question
	default:
		return nil, errors.Wrapf(ErrUnknownDialect, "%q", dialect)
	}

	return &Store{
		db:      db,
		dialect: dialect,
		sb:      squirrel.StatementBuilder.PlaceholderFormat(format),
		logger:  l.Named("dao.store"),
		metrics: m,
	}, nil
}

// Dialect 当前方言
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// DB 底层连接
func (s *Store) DB() *sql.DB {
	return s.db
}

// queryer 同时被 *sql.DB 与 *sql.Tx 实现
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx 在事务中执行 fn，fn 返回错误时回滚
func (s *Store) WithTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordDBQuery(op, err == nil, time.Since(start))
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Error("failed to rollback transaction", "op", op, "error", rbErr)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

// observe 包装只读查询的指标记录
func (s *Store) observe(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	s.metrics.RecordDBQuery(op, err == nil, time.Since(start))
	return err
}

// Migrate 按文件名顺序应用未执行过的内嵌迁移
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at BIGINT NOT NULL
		)`); err != nil {
		return errors.Wrap(err, "create schema_migrations")
	}

	applied := make(map[string]bool)
	rows, err := s.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return errors.Wrap(err, "read schema_migrations")
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return errors.Wrap(err, "scan schema migration")
		}
		applied[v] = true
	}
	if err := rows.Close(); err != nil {
		return errors.Wrap(err, "close schema migrations")
	}

	files, err := fs.Glob(migrationFS, path.Join("migrations", string(s.dialect), "*.sql"))
	if err != nil {
		return errors.Wrap(err, "glob migrations")
	}
	sort.Strings(files)

	for _, file := range files {
		version := path.Base(file)
		if applied[version] {
			continue
		}
		body, err := migrationFS.ReadFile(file)
		if err != nil {
			return errors.Wrapf(err, "read migration %s", file)
		}

		err = s.WithTx(ctx, "migrate", func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(body)); err != nil {
				return errors.Wrapf(err, "apply migration %s", version)
			}
			q, args, err := s.sb.Insert("schema_migrations").
				Columns("version", "applied_at").
				Values(version, time.Now().UnixMilli()).
				ToSql()
			if err != nil {
				return errors.Wrap(err, "build migration record")
			}
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return errors.Wrapf(err, "record migration %s", version)
			}
			return nil
		})
		if err != nil {
			return err
		}
		s.logger.Info("applied migration", "version", version, "dialect", string(s.dialect))
	}
	return nil
}

// Package sqlite 提供基于 modernc.org/sqlite（纯 Go）的嵌入式存储，
// 用于单机部署与测试，与 postgres 共用同一套 database/sql DAO。
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"
)

// Config SQLite 配置
type Config struct {
	// Path 数据库文件路径，":memory:" 表示内存库
	Path string `mapstructure:"path"`
	// BusyTimeout 写锁等待时间
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Path:        filepath.Join("data", "lifesim.sqlite"),
		BusyTimeout: 5 * time.Second,
	}
}

// Open 打开数据库并开启外键约束与 WAL
func Open(ctx context.Context, cfg *Config) (*sql.DB, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		return nil, errors.New("sqlite: path is required")
	}
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, errors.Wrap(err, "sqlite: create directory")
		}
	}

	db, err := sql.Open("sqlite", dsn(cfg))
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: open")
	}
	// SQLite 只有一个写者，单连接避免 SQLITE_BUSY 与内存库被多连接拆分
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "sqlite: ping")
	}
	return db, nil
}

func dsn(cfg *Config) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	if cfg.Path != ":memory:" {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	return "file:" + cfg.Path + "?" + q.Encode()
}

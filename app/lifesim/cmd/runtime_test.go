package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sentrygo "github.com/getsentry/sentry-go"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/engine"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/ratelimit"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/service"
	"github.com/lk2023060901/lifesim/pkg/app"
	"github.com/lk2023060901/lifesim/pkg/database/sqlite"
	"github.com/lk2023060901/lifesim/pkg/logger"
	"github.com/lk2023060901/lifesim/pkg/otel"
	"github.com/lk2023060901/lifesim/pkg/prometheus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Storage: StorageConfig{
			Driver:      DriverSQLite,
			AutoMigrate: true,
			SQLite:      sqlite.Config{Path: filepath.Join(t.TempDir(), "cmd.sqlite"), BusyTimeout: time.Second},
		},
		Metrics: prometheus.Config{Namespace: "lifesim_test"},
		Trace:   otel.Config{Enabled: false},
		Engine:  EngineConfig{MachineID: 1},
	}
}

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, cleanup, err := InitRuntime(testConfig(t), logger.NewNoop())
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return rt
}

func TestDispatchWorkFlow(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t)

	data, err := rt.Dispatch(ctx, Request{Op: OpCreateCharacter, UserID: 1, Name: "Ann", Gender: "male"})
	require.NoError(t, err)
	char, ok := data.(*model.Performer)
	require.True(t, ok)
	assert.Equal(t, model.GenderMale, char.Gender)
	assert.NotZero(t, char.ID)

	resp := newResponse(rt.Dispatch(ctx, Request{Op: OpWork, UserID: 1, PerformerID: char.ID, JobID: 1}))
	assert.False(t, resp.OK)
	assert.Equal(t, "NOT_FOUND", resp.Code)

	_, err = rt.Dispatch(ctx, Request{Op: OpAssign, UserID: 1, PerformerID: char.ID, JobID: 1})
	require.NoError(t, err)

	data, err = rt.Dispatch(ctx, Request{Op: OpWork, UserID: 1, PerformerID: char.ID, JobID: 1})
	require.NoError(t, err)
	result, ok := data.(engine.Result)
	require.True(t, ok)
	assert.Equal(t, int64(160), result.MoneyDelta)

	data, err = rt.Dispatch(ctx, Request{Op: OpHousehold, UserID: 1, PerformerID: char.ID})
	require.NoError(t, err)
	assert.Equal(t, householdView{PerformerID: char.ID, Money: 160}, data)

	data, err = rt.Dispatch(ctx, Request{Op: OpCatalog, LocationID: 2})
	require.NoError(t, err)
	cat, ok := data.(*service.Catalog)
	require.True(t, ok)
	assert.Len(t, cat.Locations, 1)
	assert.Len(t, cat.SubActivities, 4)

	resp = newResponse(rt.Dispatch(ctx, Request{Op: OpCatalog, LocationID: 99}))
	assert.Equal(t, "NOT_FOUND", resp.Code)

	resp = newResponse(rt.Dispatch(ctx, Request{Op: OpStatus, UserID: 2, PerformerID: char.ID}))
	assert.Equal(t, "FORBIDDEN", resp.Code)

	resp = newResponse(rt.Dispatch(ctx, Request{Op: "dance"}))
	assert.Equal(t, "UNKNOWN_OPERATION", resp.Code)
}

func TestConsole(t *testing.T) {
	rt := newTestRuntime(t)

	in := strings.Join([]string{
		`{"op":"create-character","user_id":1,"name":"Ann","gender":"female"}`,
		``,
		`not json`,
		`{"op":"status","user_id":1,"performer_id":424242}`,
	}, "\n")
	var out bytes.Buffer

	assert.Equal(t, []string{"OK", "BAD_REQUEST", "NOT_FOUND"}, runConsole(t, NewConsole(rt, strings.NewReader(in), &out, nil, logger.NewNoop()), &out))
}

func TestConsoleRateLimit(t *testing.T) {
	rt := newTestRuntime(t)
	limiter, err := ratelimit.New(&ratelimit.Config{RequestsPerSecond: 0.001, Burst: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = limiter.Close() })

	in := strings.Join([]string{
		`{"op":"create-character","user_id":1,"name":"Ann","gender":"female"}`,
		`{"op":"create-character","user_id":1,"name":"Bo","gender":"male"}`,
		`{"op":"create-character","user_id":2,"name":"Cy","gender":"male"}`,
	}, "\n")
	var out bytes.Buffer

	codes := runConsole(t, NewConsole(rt, strings.NewReader(in), &out, limiter, logger.NewNoop()), &out)
	assert.Equal(t, []string{"OK", "RATE_LIMITED", "OK"}, codes)
}

// runConsole 运行到输入结束，返回每行响应的 code
func runConsole(t *testing.T, c *Console, out *bytes.Buffer) []string {
	t.Helper()
	require.NoError(t, c.Start())
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("console did not finish")
	}
	require.NoError(t, c.Stop())

	dec := json.NewDecoder(out)
	var codes []string
	for dec.More() {
		var resp Response
		require.NoError(t, dec.Decode(&resp))
		codes = append(codes, resp.Code)
	}
	return codes
}

func TestTagActor(t *testing.T) {
	c := &cli{user: 7, admin: true}
	ev := c.tagActor(&sentrygo.Event{Message: "save failed"})
	require.NotNil(t, ev)
	assert.Equal(t, "7", ev.User.ID)
	assert.Equal(t, "admin", ev.User.Segment)

	ev = (&cli{}).tagActor(&sentrygo.Event{})
	assert.Empty(t, ev.User.ID)
}

func TestIDArgs(t *testing.T) {
	check := idArgs(2, 0)
	cmd := &cobra.Command{}

	assert.NoError(t, check(cmd, []string{"12", "Ann"}))
	assert.Error(t, check(cmd, []string{"12"}))
	assert.Error(t, check(cmd, []string{"x", "Ann"}))
	assert.NoError(t, catalogArgs(cmd, nil))
	assert.NoError(t, catalogArgs(cmd, []string{"2"}))
	assert.Error(t, catalogArgs(cmd, []string{"2", "3"}))
	assert.Equal(t, int64(12), parseID("12"))
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: postgres\n  postgres:\n    dsn: postgres://localhost/lifesim\n"), 0o600))

	var cfg Config
	require.NoError(t, app.LoadConfig(&app.Flags{ConfigPath: path}, &cfg, defaultSettings()))
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/lifesim", cfg.Storage.Postgres.DSN)
	assert.Equal(t, "lifesim", cfg.Metrics.Namespace)
	assert.Equal(t, 30*time.Minute, cfg.Engine.CacheTTL)
	assert.Nil(t, cfg.Redis)

	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: mysql\n"), 0o600))
	assert.Error(t, app.LoadConfig(&app.Flags{ConfigPath: path}, &Config{}, defaultSettings()))
}

func TestRootCommandRunsOperation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := "storage:\n  driver: sqlite\n  sqlite:\n    path: " + filepath.Join(dir, "root.sqlite") + "\n" +
		"metrics:\n  http_server:\n    enabled: false\n" +
		"log:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-c", path, "--user", "3", "create-character", "Ann", "male"})
	require.NoError(t, cmd.Execute())

	var resp struct {
		OK   bool `json:"ok"`
		Data struct {
			UserID int64 `json:"userId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, int64(3), resp.Data.UserID)

	out.Reset()
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-c", path, "--user", "4", "sleep", "1"})
	assert.ErrorIs(t, cmd.Execute(), errReported)
	assert.Contains(t, out.String(), `"NOT_FOUND"`)
}

package app

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	started atomic.Bool
	stopped atomic.Bool
	failOn  bool
}

func (s *fakeServer) Start() error {
	if s.failOn {
		return errors.New("bind failed")
	}
	s.started.Store(true)
	return nil
}

func (s *fakeServer) Stop() error {
	s.stopped.Store(true)
	return nil
}

func TestBaseAppLifecycle(t *testing.T) {
	a := NewBaseApp(WithName("test"), WithStopTimeout(time.Second))
	srv := &fakeServer{}
	var order []string
	a.AppendServer(srv)
	a.AppendCloser(
		CloserFunc(func() error { order = append(order, "db"); return nil }),
		CloserFunc(func() error { order = append(order, "redis"); return nil }),
	)

	done := make(chan error, 1)
	go func() { done <- a.Run() }()

	require.Eventually(t, srv.started.Load, time.Second, 10*time.Millisecond)
	require.NoError(t, a.Shutdown())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}

	assert.True(t, srv.stopped.Load())
	assert.Equal(t, []string{"redis", "db"}, order)
	assert.ErrorIs(t, a.Run(), ErrAppAlreadyRunning)
}

func TestBaseAppStartFailure(t *testing.T) {
	a := NewBaseApp()
	a.AppendServer(&fakeServer{failOn: true})

	err := a.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bind failed")
}

type loadTarget struct {
	Name    string `mapstructure:"name" validate:"required"`
	Workers int    `mapstructure:"workers" validate:"gte=1"`
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: lifesim\n"), 0o600))

	var flags Flags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"-c", path}))

	var cfg loadTarget
	require.NoError(t, LoadConfig(&flags, &cfg, map[string]any{"workers": 2}))
	assert.Equal(t, "lifesim", cfg.Name)
	assert.Equal(t, 2, cfg.Workers)

	t.Setenv("LIFESIM_WORKERS", "0")
	err := LoadConfig(&flags, &loadTarget{}, map[string]any{"workers": 2})
	assert.Error(t, err)
}

func TestResolveConfigPathFromEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/lifesim/config.yaml")
	var flags Flags
	assert.Equal(t, "/etc/lifesim/config.yaml", flags.ResolveConfigPath())

	flags.ConfigPath = "explicit.yaml"
	assert.Equal(t, "explicit.yaml", flags.ResolveConfigPath())
}

func TestLoadConfigMissingFile(t *testing.T) {
	flags := Flags{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")}
	err := LoadConfig(&flags, &loadTarget{}, map[string]any{"name": "lifesim", "workers": 1})
	assert.Error(t, err)
}

package main

import (
	"encoding/json"
	"io"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	sentrygo "github.com/getsentry/sentry-go"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/metrics"
	"github.com/lk2023060901/lifesim/pkg/app"
	"github.com/lk2023060901/lifesim/pkg/logger"
	"github.com/lk2023060901/lifesim/pkg/sentry"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

// errReported 失败结果已经写到输出
var errReported = errors.New("operation failed")

// cli 所有子命令共享的状态
type cli struct {
	flags    app.Flags
	cfg      Config
	logger   logger.Logger
	reporter *sentry.Client

	user   int64
	admin  bool
	pretty bool

	// 日志先于指标创建，钩子在装配完成后才开始计数
	logMetrics atomic.Pointer[metrics.Metrics]
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	cmd := &cobra.Command{
		Use:           "lifesim",
		Short:         "Life-sim progression and economy engine",
		Long:          "lifesim evaluates performer actions, jobs and sleep against reference tables and persists the results atomically.",
		Version:       app.GetInfo().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.reporter != nil {
				_ = c.reporter.Close()
				if c.logger != nil && c.reporter.Captured() > 0 {
					c.logger.Info("error reports flushed", "count", c.reporter.Captured())
				}
			}
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")

	fs := cmd.PersistentFlags()
	c.flags.BindFlags(fs)
	fs.Int64Var(&c.user, "user", 0, "acting user id")
	fs.BoolVar(&c.admin, "admin", false, "act as administrator")
	fs.BoolVar(&c.pretty, "pretty", false, "indent JSON output")

	cmd.AddCommand(
		newVersionCmd(),
		newMigrateCmd(c),
		newServeCmd(c),
	)
	cmd.AddCommand(newPerformerCmds(c)...)
	cmd.AddCommand(newActionCmds(c)...)
	cmd.AddCommand(newQueryCmds(c)...)
	return cmd
}

// setup 加载配置并创建主日志
func (c *cli) setup() error {
	if err := app.LoadConfig(&c.flags, &c.cfg, defaultSettings()); err != nil {
		return errors.Wrap(err, "load config")
	}
	if c.flags.LogPath != "" {
		c.cfg.Log.OutputPath = c.flags.LogPath
		c.cfg.Log.EnableFile = true
		if err := app.EnsureDir(c.flags.LogPath); err != nil {
			return err
		}
	}

	// 标准输出留给 JSON 结果，控制台日志改写到标准错误
	opts := []logger.Option{
		logger.WithName(app.AppName),
		logger.WithHooks(logger.HookFunc(c.countLog)),
	}
	if c.cfg.Sentry.Enabled() {
		reporter, err := sentry.New(&c.cfg.Sentry, sentry.WithBeforeSend(c.tagActor))
		if err != nil {
			return errors.Wrap(err, "create sentry client")
		}
		c.reporter = reporter
		opts = append(opts, logger.WithHooks(reporter.LogHook(zapcore.ErrorLevel)))
	}
	if c.cfg.Log.EnableConsole {
		c.cfg.Log.EnableConsole = false
		opts = append(opts, logger.WithWriter(os.Stderr))
	}

	l, err := logger.New(&c.cfg.Log, opts...)
	if err != nil {
		return errors.Wrap(err, "create logger")
	}
	c.logger = l
	return nil
}

// tagActor 给上报事件附加发起请求的用户
func (c *cli) tagActor(event *sentrygo.Event) *sentrygo.Event {
	if c.user != 0 {
		event.User.ID = strconv.FormatInt(c.user, 10)
	}
	if c.admin {
		event.User.Segment = "admin"
	}
	return event
}

func (c *cli) countLog(entry zapcore.Entry, fields []zapcore.Field) bool {
	return c.logMetrics.Load().LogHook().OnWrite(entry, fields)
}

// runtime 装配全部组件
func (c *cli) runtime() (*Runtime, func(), error) {
	rt, cleanup, err := InitRuntime(&c.cfg, c.logger)
	if err != nil {
		return nil, nil, errors.Wrap(err, "init runtime")
	}
	c.logMetrics.Store(rt.Metrics)
	return rt, func() {
		c.logMetrics.Store(nil)
		cleanup()
	}, nil
}

// run 执行单个请求并输出 JSON
func (c *cli) run(cmd *cobra.Command, req Request) error {
	rt, cleanup, err := c.runtime()
	if err != nil {
		return err
	}
	defer cleanup()

	req.UserID, req.Admin = c.user, c.admin
	resp := newResponse(rt.Dispatch(cmd.Context(), req))
	if err := c.print(cmd.OutOrStdout(), resp); err != nil {
		return err
	}
	if !resp.OK {
		return errReported
	}
	return nil
}

func (c *cli) print(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if c.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

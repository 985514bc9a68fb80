package main

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/ratelimit"
	"github.com/lk2023060901/lifesim/pkg/app"
	"github.com/spf13/cobra"
)

func newServeCmd(c *cli) *cobra.Command {
	var (
		stdin       bool
		stopTimeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run as a long-lived process with metrics, table hot reload and an optional stdin console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := c.runtime()
			if err != nil {
				return err
			}

			a := app.NewBaseApp(
				app.WithLogger(c.logger),
				app.WithName(app.AppName),
				app.WithStopTimeout(stopTimeout),
			)

			servers := []app.Server{rt.Prometheus}
			if c.cfg.Gamedata.Watch && c.cfg.Gamedata.DataDir != "" {
				servers = append(servers, rt.Watcher)
			}
			closers := []app.Closer{app.CloserFunc(func() error {
				cleanup()
				return nil
			})}

			var console *Console
			if stdin {
				limiter, err := ratelimit.New(&c.cfg.Console.RateLimit)
				if err != nil {
					cleanup()
					return err
				}
				console = NewConsole(rt, cmd.InOrStdin(), cmd.OutOrStdout(), limiter, c.logger)
				servers = append(servers, console)
				closers = append(closers, limiter)
			}

			app.Attach(a, app.Components{
				Servers: servers,
				Closers: closers,
			})

			c.logger.Info("lifesim serving",
				"driver", c.cfg.Storage.Driver,
				"redis", c.cfg.Redis != nil,
				"tables_version", rt.Tables.Version(),
			)

			if console == nil {
				return a.Run()
			}

			// 输入流结束时主动关闭
			shutdown := make(chan error, 1)
			go func() {
				select {
				case <-console.Done():
					shutdown <- a.Shutdown()
				case <-a.Context().Done():
					shutdown <- nil
				}
			}()
			runErr := a.Run()
			return errors.CombineErrors(runErr, <-shutdown)
		},
	}
	cmd.Flags().BoolVar(&stdin, "stdin", false, "read newline-delimited JSON requests from stdin")
	cmd.Flags().DurationVar(&stopTimeout, "stop-timeout", 30*time.Second, "graceful shutdown deadline")
	return cmd
}

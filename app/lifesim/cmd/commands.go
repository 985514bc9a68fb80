package main

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/pkg/app"
	"github.com/spf13/cobra"
)

// idArgs 校验参数个数，并要求 ids 中列出的位置是整数
func idArgs(n int, ids ...int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return errors.Newf("expected %d argument(s), got %d", n, len(args))
		}
		for _, i := range ids {
			if _, err := strconv.ParseInt(args[i], 10, 64); err != nil {
				return errors.Newf("argument %d must be an integer id", i+1)
			}
		}
		return nil
	}
}

// catalogArgs 可选的地点 ID
func catalogArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	return idArgs(1, 0)(cmd, args)
}

// parseID 参数已经过 idArgs 校验
func parseID(s string) int64 {
	id, _ := strconv.ParseInt(s, 10, 64)
	return id
}

// opCmd 构造一个执行单个请求的子命令
func opCmd(c *cli, use, short string, args cobra.PositionalArgs, build func(args []string) Request) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, a []string) error {
			return c.run(cmd, build(a))
		},
	}
}

func newPerformerCmds(c *cli) []*cobra.Command {
	var owner int64
	createCompanion := opCmd(c, "create-companion <name> <gender>", "Create a companion, optionally linked to --owner", idArgs(2),
		func(a []string) Request {
			return Request{Op: OpCreateCompanion, TargetID: owner, Name: a[0], Gender: a[1]}
		})
	createCompanion.Flags().Int64Var(&owner, "owner", 0, "owning character id (0 creates an orphan, admin only)")

	return []*cobra.Command{
		opCmd(c, "create-character <name> <gender>", "Create a character owned by --user", idArgs(2),
			func(a []string) Request {
				return Request{Op: OpCreateCharacter, Name: a[0], Gender: a[1]}
			}),
		createCompanion,
		opCmd(c, "link <companion-id> <character-id>", "Link a companion to a character", idArgs(2, 0, 1),
			func(a []string) Request {
				return Request{Op: OpLink, PerformerID: parseID(a[0]), TargetID: parseID(a[1])}
			}),
		opCmd(c, "grant-achievement <performer-id> <name>", "Grant an achievement (admin)", idArgs(2, 0),
			func(a []string) Request {
				return Request{Op: OpGrantAchievement, PerformerID: parseID(a[0]), Name: a[1]}
			}),
		opCmd(c, "delete <performer-id>", "Delete a performer", idArgs(1, 0),
			func(a []string) Request {
				return Request{Op: OpDelete, PerformerID: parseID(a[0])}
			}),
	}
}

func newActionCmds(c *cli) []*cobra.Command {
	jobCmd := func(op, short string) *cobra.Command {
		return opCmd(c, op+" <performer-id> <job-id>", short, idArgs(2, 0, 1),
			func(a []string) Request {
				return Request{Op: op, PerformerID: parseID(a[0]), JobID: parseID(a[1])}
			})
	}

	return []*cobra.Command{
		opCmd(c, "exec <performer-id> <sub-activity-id>", "Perform a sub-activity", idArgs(2, 0, 1),
			func(a []string) Request {
				return Request{Op: OpExec, PerformerID: parseID(a[0]), SubActivityID: parseID(a[1])}
			}),
		opCmd(c, "sleep <performer-id>", "Sleep: apply level-ups and restore stamina", idArgs(1, 0),
			func(a []string) Request {
				return Request{Op: OpSleep, PerformerID: parseID(a[0])}
			}),
		jobCmd(OpAssign, "Assign a job"),
		jobCmd(OpWork, "Work a shift"),
		jobCmd(OpPromote, "Promote to the next tier of the job family"),
	}
}

func newQueryCmds(c *cli) []*cobra.Command {
	query := func(op, short string) *cobra.Command {
		return opCmd(c, op+" <performer-id>", short, idArgs(1, 0),
			func(a []string) Request {
				return Request{Op: op, PerformerID: parseID(a[0])}
			})
	}

	return []*cobra.Command{
		query(OpStatus, "Show performer status"),
		query(OpMeasurements, "Show current measurements"),
		query(OpLift, "Show lift capacity"),
		query(OpEndurance, "Show endurance"),
		query(OpHousehold, "Show household money"),
		opCmd(c, "catalog [location-id]", "List locations, activities and sub-activities", catalogArgs,
			func(a []string) Request {
				if len(a) == 0 {
					return Request{Op: OpCatalog}
				}
				return Request{Op: OpCatalog, LocationID: parseID(a[0])}
			}),
	}
}

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.cfg.Storage.AutoMigrate = false
			rt, cleanup, err := c.runtime()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := rt.Store.Migrate(cmd.Context()); err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), newResponse(map[string]string{"driver": c.cfg.Storage.Driver}, nil))
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write([]byte(app.GetInfo().String() + "\n"))
			return err
		},
	}
}

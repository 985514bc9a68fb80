package dao

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
	"github.com/lk2023060901/lifesim/pkg/database/postgres"
	"github.com/lk2023060901/lifesim/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresIntegration(t *testing.T) {
	dsn := os.Getenv("LIFESIM_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LIFESIM_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	c, err := postgres.New(&postgres.Config{DSN: dsn})
	require.NoError(t, err)
	defer c.Close()

	s, err := NewStore(c.DB(), DialectPostgres, logger.NewNoop(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))

	d := NewPerformerDAO(s, logger.NewNoop())
	jp := NewJobProgressDAO(s, logger.NewNoop())

	id := time.Now().UnixNano()
	p := model.NewCharacter(1, "pg", model.GenderMale)
	p.ID = id
	p.JobIDs = []int64{1}
	require.NoError(t, s.WithTx(ctx, "test.insert", func(tx *sql.Tx) error {
		if err := d.Insert(ctx, tx, p); err != nil {
			return err
		}
		return jp.Upsert(ctx, tx, &model.JobProgress{PerformerID: id, JobID: 1, Level: 1, CurrentXP: 3})
	}))
	t.Cleanup(func() {
		_ = s.WithTx(ctx, "test.cleanup", func(tx *sql.Tx) error { return d.Delete(ctx, tx, id) })
	})

	got, err := d.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, got.JobIDs)

	progress, err := jp.Get(ctx, id, 1)
	require.NoError(t, err)
	require.NotNil(t, progress)
	assert.Equal(t, 3, progress.CurrentXP)
}

package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lk2023060901/lifesim/app/lifesim/internal/dao"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
	"github.com/lk2023060901/lifesim/pkg/database/sqlite"
	"github.com/lk2023060901/lifesim/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) PerformerRepository {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, &sqlite.Config{Path: filepath.Join(t.TempDir(), "repo.sqlite")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	l := logger.NewNoop()
	s, err := dao.NewStore(db, dao.DialectSQLite, l, nil)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	return NewPerformerRepository(s, dao.NewPerformerDAO(s, l), dao.NewJobProgressDAO(s, l), l)
}

func TestSaveAppliesMutationAtomically(t *testing.T) {
	ctx := context.Background()
	r := newTestRepository(t)

	char := model.NewCharacter(1, "Ann", model.GenderFemale)
	char.ID = 1
	char.JobIDs = []int64{1}
	require.NoError(t, r.Create(ctx, char))
	require.NoError(t, r.Save(ctx, &model.Mutation{
		UpsertProgress: []*model.JobProgress{{PerformerID: 1, JobID: 1, Level: 1, CurrentXP: 40}},
	}))

	// 晋升：删除旧进度、写入新进度、切换职业关联
	char.JobIDs = []int64{2}
	char.Money = 99
	require.NoError(t, r.Save(ctx, &model.Mutation{
		Performers:     []*model.Performer{char},
		DeleteProgress: []model.JobProgressKey{{PerformerID: 1, JobID: 1}},
		UpsertProgress: []*model.JobProgress{{PerformerID: 1, JobID: 2, Level: 2, CurrentXP: 40}},
	}))

	got, err := r.GetPerformer(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, got.JobIDs)
	assert.Equal(t, int64(99), got.Money)

	list, err := r.ListJobProgress(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(2), list[0].JobID)
	assert.Equal(t, 40, list[0].CurrentXP)
}

func TestSaveRollsBackOnMissingPerformer(t *testing.T) {
	ctx := context.Background()
	r := newTestRepository(t)

	char := model.NewCharacter(1, "Ann", model.GenderFemale)
	char.ID = 1
	require.NoError(t, r.Create(ctx, char))

	updated := char.Clone()
	updated.Money = 500
	ghost := model.NewCompanion(1, "Ghost", model.GenderMale)
	ghost.ID = 2

	err := r.Save(ctx, &model.Mutation{Performers: []*model.Performer{updated, ghost}})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := r.GetPerformer(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, got.Money)
}

func TestListCompanionsAndDelete(t *testing.T) {
	ctx := context.Background()
	r := newTestRepository(t)

	char := model.NewCharacter(9, "Owner", model.GenderMale)
	char.ID = 1
	require.NoError(t, r.Create(ctx, char))
	for _, id := range []int64{2, 3} {
		c := model.NewCompanion(1, "Pal", model.GenderFemale)
		c.ID = id
		c.Money = 10 * id
		require.NoError(t, r.Create(ctx, c))
	}

	comps, err := r.ListCompanions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, comps, 2)
	assert.Equal(t, int64(20), comps[0].Money)

	chars, err := r.ListCharacters(ctx, 9)
	require.NoError(t, err)
	require.Len(t, chars, 1)

	require.NoError(t, r.Delete(ctx, 1))
	assert.ErrorIs(t, r.Delete(ctx, 1), ErrNotFound)

	comps, err = r.ListCompanions(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, comps)
}

func TestSaveEmptyMutationIsNoop(t *testing.T) {
	r := newTestRepository(t)
	assert.NoError(t, r.Save(context.Background(), &model.Mutation{}))
	assert.NoError(t, r.Save(context.Background(), nil))
}

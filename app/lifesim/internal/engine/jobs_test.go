package engine

import (
	"testing"

	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignGates(t *testing.T) {
	r := testResolver()
	cat := r.Jobs()

	t.Run("entry level zero", func(t *testing.T) {
		job, _ := cat.Job(1)
		out, err := r.Assign(testPerformer(), job, nil)
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, out.Performer.JobIDs)
		assert.Equal(t, &model.JobProgress{PerformerID: 100, JobID: 1, Level: 1, CurrentXP: 0}, out.Progress)
	})

	t.Run("entry gate checked against own progress", func(t *testing.T) {
		job, _ := cat.Job(2)
		_, err := r.Assign(testPerformer(), job, nil)
		assert.ErrorIs(t, err, ErrRequirementNotMet)

		out, err := r.Assign(testPerformer(), job, &model.JobProgress{PerformerID: 100, JobID: 2, Level: 2, CurrentXP: 40})
		require.NoError(t, err)
		assert.Equal(t, 40, out.Progress.CurrentXP)
	})

	t.Run("stat minimum", func(t *testing.T) {
		job, _ := cat.Job(10)
		_, err := r.Assign(testPerformer(), job, nil)
		assert.ErrorIs(t, err, ErrRequirementNotMet)

		p := testPerformer()
		p.Ledger.STR.Level = 2
		_, err = r.Assign(p, job, nil)
		assert.NoError(t, err)
	})

	t.Run("achievement", func(t *testing.T) {
		job, _ := cat.Job(3)
		_, err := r.Assign(testPerformer(), job, nil)
		assert.ErrorIs(t, err, ErrRequirementNotMet)

		p := testPerformer()
		p.Achievements = []string{"office-master"}
		_, err = r.Assign(p, job, nil)
		assert.NoError(t, err)
	})
}

func TestWork(t *testing.T) {
	r := testResolver()
	job, _ := r.Jobs().Job(10)

	p := testPerformer()
	p.Ledger.STR.Level = 2
	p.JobIDs = []int64{10}
	p.TimeOfDay = 1200

	out, err := r.Work(p, job, &model.JobProgress{PerformerID: 100, JobID: 10, Level: 1, CurrentXP: 35})
	require.NoError(t, err)

	assert.Equal(t, 40, out.Progress.CurrentXP, "job xp clamps at xpNeeded")
	assert.True(t, out.Result.PromotionAvailable)
	assert.True(t, out.Result.LeveledUp)
	assert.Equal(t, 1, out.Progress.Level, "work never bumps the job level")
	assert.Equal(t, int64(120), out.Result.MoneyDelta)
	assert.Equal(t, int64(120), out.Performer.Money)
	assert.Equal(t, 3, out.Performer.Ledger.CurrentStamina)
	assert.Equal(t, 5, out.Performer.Ledger.STR.CurrentXP)
	assert.Equal(t, 5, out.Performer.Ledger.STA.CurrentXP)
	assert.Equal(t, Clock{120, "Tuesday", "02:00"}, out.Result.TimeAfter)

	_, err = r.Work(testPerformer(), job, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPromoteCarryOver(t *testing.T) {
	r := testResolver()
	job, _ := r.Jobs().Job(1)

	p := testPerformer()
	p.JobIDs = []int64{1}

	out, err := r.Promote(p, job, &model.JobProgress{PerformerID: 100, JobID: 1, Level: 1, CurrentXP: 80})
	require.NoError(t, err)

	assert.Equal(t, int64(1), out.RemovedJobID)
	assert.Equal(t, &model.JobProgress{PerformerID: 100, JobID: 2, Level: 2, CurrentXP: 80}, out.Progress)
	assert.Equal(t, []int64{2}, out.Performer.JobIDs)
	assert.Equal(t, []int64{1}, p.JobIDs)
}

func TestPromoteRejections(t *testing.T) {
	r := testResolver()

	job1, _ := r.Jobs().Job(1)
	_, err := r.Promote(testPerformer(), job1, &model.JobProgress{JobID: 1, CurrentXP: 49})
	assert.ErrorIs(t, err, ErrRequirementNotMet)

	_, err = r.Promote(testPerformer(), job1, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	top, _ := r.Jobs().Job(3)
	_, err = r.Promote(testPerformer(), top, &model.JobProgress{JobID: 3, CurrentXP: 480})
	assert.ErrorIs(t, err, ErrNoHigherTier)
}

func TestHouseholdMoney(t *testing.T) {
	char := testPerformer()
	char.Money = 100

	linked := model.NewCompanion(char.ID, "Sam", model.GenderFemale)
	linked.Money = 50
	other := model.NewCompanion(999, "Kim", model.GenderFemale)
	other.Money = 1000

	assert.Equal(t, int64(150), HouseholdMoney(char, []*model.Performer{linked, other, nil}))
}

func TestErrorCodes(t *testing.T) {
	assert.Equal(t, "NO_HIGHER_TIER", Code(ErrNoHigherTier))
	assert.Equal(t, "OK", Code(nil))
	assert.True(t, IsBusinessError(ErrForbidden))
	assert.False(t, IsBusinessError(assert.AnError))
}

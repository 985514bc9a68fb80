package engine

import (
	"testing"

	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSleepScenario(t *testing.T) {
	r := testResolver()
	p := testPerformer()
	p.Ledger.STR.CurrentXP = 40
	p.Ledger.DEX.CurrentXP = 20
	p.Ledger.CurrentStamina = 0
	p.TimeOfDay = 1320
	p.Weekday = "Friday"

	out, err := r.Sleep(p)
	require.NoError(t, err)

	next := out.Performer
	assert.Equal(t, model.Track{Level: 2, CurrentXP: 0}, next.Ledger.STR)
	assert.Equal(t, model.Track{Level: 1, CurrentXP: 20}, next.Ledger.DEX)
	assert.Equal(t, next.Ledger.STA.Level, next.Ledger.CurrentStamina)
	assert.True(t, out.Result.LeveledUp)
	assert.Equal(t, []model.StatType{model.StatSTR}, out.Result.LeveledTracks)
	assert.Equal(t, Clock{360, "Saturday", "06:00"}, out.Result.TimeAfter)

	require.NotNil(t, out.Result.Measurements)
	assert.Equal(t, 2, out.Result.Measurements.Level)

	// 输入未被修改
	assert.Equal(t, 1, p.Ledger.STR.Level)
	assert.Equal(t, 40, p.Ledger.STR.CurrentXP)
}

func TestExecuteGrantsXPAndAdvances(t *testing.T) {
	r := testResolver()
	p := testPerformer()

	sub := &model.SubActivity{
		ID: 1, Name: "Bench Press", Type: "STR", XPGained: 15, StaminaCost: 1, Length: 90,
		Description: "{name} can bench {benchPress} kg at {weight} kg body weight.",
	}
	out, err := r.Execute(p, sub)
	require.NoError(t, err)

	assert.Equal(t, "Alex can bench 40 kg at 70 kg body weight.", out.Result.Message)
	assert.Equal(t, &StatDelta{Track: model.StatSTR, NewXP: 15, NeededXP: 40}, out.Result.StatDelta)
	assert.Equal(t, 4, out.Performer.Ledger.CurrentStamina)
	assert.Equal(t, Clock{570, "Monday", "09:30"}, out.Result.TimeAfter)
	assert.False(t, out.Result.LeveledUp)
	assert.Equal(t, 5, p.Ledger.CurrentStamina)
}

func TestExecuteTreadmillBonus(t *testing.T) {
	r := testResolver()
	treadmill := &model.SubActivity{
		ID: 2, Name: "Treadmill", Type: "STA", XPGained: 10, StaminaCost: 1, Length: 60,
		Description: "You ran {distance} km.",
		Effects:     []model.Effect{{Kind: model.EffectBonusXP, Stat: model.StatSTR, Amount: 3, WhileLevelBelow: 3}},
	}

	p := testPerformer()
	out, err := r.Execute(p, treadmill)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Performer.Ledger.STR.CurrentXP)
	assert.Equal(t, 10, out.Performer.Ledger.STA.CurrentXP)
	assert.Equal(t, "You ran 5 km.", out.Result.Message)
	require.Len(t, out.Result.SideDeltas, 1)

	strong := testPerformer()
	strong.Ledger.STR.Level = 3
	out, err = r.Execute(strong, treadmill)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Performer.Ledger.STR.CurrentXP)
	assert.Empty(t, out.Result.SideDeltas)
}

func TestExecuteRejections(t *testing.T) {
	r := testResolver()

	p := testPerformer()
	p.Ledger.CurrentStamina = 1
	_, err := r.Execute(p, &model.SubActivity{Name: "Marathon", Type: "STA", StaminaCost: 2, XPGained: 30})
	assert.ErrorIs(t, err, ErrInsufficientResource)
	assert.Equal(t, 1, p.Ledger.CurrentStamina)
	assert.Equal(t, 0, p.Ledger.STA.CurrentXP)

	_, err = r.Execute(p, &model.SubActivity{Name: "Dance", Type: "LUCK"})
	assert.ErrorIs(t, err, ErrInvalidActionType)

	_, err = r.Execute(p, &model.SubActivity{Name: "Odd", Type: "DEX", Effects: []model.Effect{{Kind: "teleport", Stat: model.StatDEX}}})
	assert.ErrorIs(t, err, ErrInvalidActionType)
}

func TestExecuteSleepSubActivity(t *testing.T) {
	r := testResolver()
	out, err := r.Execute(testPerformer(), &model.SubActivity{Name: "Nap", Type: model.ActionSleep})
	require.NoError(t, err)
	assert.Equal(t, Clock{960, "Monday", "16:00"}, out.Result.TimeAfter)
}

func TestRenderFallbacks(t *testing.T) {
	p := testPerformer()
	p.Gender = "OTHER"
	msg := Render("Lift {squat}, run {distance}, feel {mood}.", p, testScaler())
	assert.Equal(t, "Lift an untested squat weight, run an unknown distance, feel something unexpected.", msg)
	assert.NotContains(t, msg, "{")
}

func TestRenderUnnamedPerformer(t *testing.T) {
	p := testPerformer()
	p.Name = ""
	assert.Equal(t, "Performer 100 squats 60 kg.", Render("{name} squats {squat} kg.", p, testScaler()))
}

func TestStaminaFloorOverRepeatedWork(t *testing.T) {
	r := testResolver()
	job, err := r.Jobs().Job(1)
	require.NoError(t, err)

	p := testPerformer()
	p.Ledger.CurrentStamina = 3
	p.JobIDs = []int64{1}

	var progress *model.JobProgress
	for i := 0; i < 5; i++ {
		out, err := r.Work(p, job, progress)
		if err != nil {
			assert.ErrorIs(t, err, ErrInsufficientResource)
			assert.Equal(t, 0, p.Ledger.CurrentStamina)
			continue
		}
		p, progress = out.Performer, out.Progress
		assert.GreaterOrEqual(t, p.Ledger.CurrentStamina, 0)
	}
	assert.Equal(t, 0, p.Ledger.CurrentStamina)
	assert.Equal(t, int64(3*160), p.Money)
	assert.Equal(t, 30, progress.CurrentXP)
}

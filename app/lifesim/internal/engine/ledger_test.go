package engine

import (
	"testing"

	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequirementTableSentinel(t *testing.T) {
	tbl := testThresholds()
	assert.Equal(t, 40, tbl.NeededXP(model.StatSTR, 1))
	assert.Equal(t, 80, tbl.NeededXP(model.StatDEX, 2))
	assert.Equal(t, MissingThreshold, tbl.NeededXP(model.StatDEX, 99))
	assert.Equal(t, MissingThreshold, (*RequirementTable)(nil).NeededXP(model.StatSTR, 1))
}

func TestGrantXPClamps(t *testing.T) {
	tbl := testThresholds()
	l := model.NewStatLedger()

	for _, amount := range []int{10, 25, 1000, -5, 0} {
		for _, s := range model.AllStats {
			track, err := GrantXP(&l, s, amount, tbl)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, track.CurrentXP, 0)
			assert.LessOrEqual(t, track.CurrentXP, tbl.NeededXP(s, track.Level))
			assert.Equal(t, 1, track.Level, "grant must never level up")
		}
	}
	assert.Equal(t, 40, l.STR.CurrentXP)
	assert.Equal(t, 60, l.DEX.CurrentXP)
}

func TestGrantXPUnknownTrack(t *testing.T) {
	l := model.NewStatLedger()
	_, err := GrantXP(&l, "LUCK", 10, testThresholds())
	assert.ErrorIs(t, err, ErrInvalidActionType)
}

func TestApplyLevelUpsSinglePass(t *testing.T) {
	tbl := testThresholds()
	l := model.NewStatLedger()
	l.STR.CurrentXP = 40
	l.DEX.CurrentXP = 59
	l.STA = model.Track{Level: 2, CurrentXP: 80}

	leveled := ApplyLevelUps(&l, tbl)

	assert.Equal(t, []model.StatType{model.StatSTR, model.StatSTA}, leveled)
	assert.Equal(t, model.Track{Level: 2, CurrentXP: 0}, l.STR)
	assert.Equal(t, model.Track{Level: 1, CurrentXP: 59}, l.DEX)
	assert.Equal(t, model.Track{Level: 3, CurrentXP: 0}, l.STA)

	// 第二次结算不会连升
	assert.Empty(t, ApplyLevelUps(&l, tbl))
}

func TestApplyLevelUpsPastTable(t *testing.T) {
	tbl := testThresholds()
	l := model.NewStatLedger()
	l.STR = model.Track{Level: 6}

	for range 100 {
		_, err := GrantXP(&l, model.StatSTR, 15, tbl)
		require.NoError(t, err)
	}
	assert.Equal(t, model.Track{Level: 6, CurrentXP: MissingThreshold}, l.STR)

	assert.Empty(t, ApplyLevelUps(&l, tbl))
	assert.Equal(t, model.Track{Level: 6, CurrentXP: MissingThreshold}, l.STR)

	// 空表下任何轨道都不会升级
	l = model.NewStatLedger()
	l.DEX.CurrentXP = MissingThreshold
	assert.Empty(t, ApplyLevelUps(&l, nil))
	assert.Equal(t, 1, l.DEX.Level)
}

func TestStamina(t *testing.T) {
	l := model.NewStatLedger()
	l.CurrentStamina = 2

	require.NoError(t, SpendStamina(&l, 0))
	require.NoError(t, SpendStamina(&l, 2))
	assert.Equal(t, 0, l.CurrentStamina)

	err := SpendStamina(&l, 1)
	assert.ErrorIs(t, err, ErrInsufficientResource)
	assert.Equal(t, 0, l.CurrentStamina)

	l.STA.Level = 4
	RestoreStamina(&l)
	assert.Equal(t, 4, l.CurrentStamina)
}

package engine

import "github.com/lk2023060901/lifesim/app/lifesim/internal/model"

func testThresholds() *RequirementTable {
	var rows []model.StatRequirement
	for _, s := range model.AllStats {
		for lvl, xp := range []int{60, 80, 100, 120, 140} {
			rows = append(rows, model.StatRequirement{Stat: s, Level: lvl + 1, NeededXP: xp})
		}
	}
	// STR 1 级阈值调低到 40
	rows = append(rows, model.StatRequirement{Stat: model.StatSTR, Level: 1, NeededXP: 40})
	return NewRequirementTable(rows)
}

func testScaler() *Scaler {
	return NewScaler(
		[]model.Measurements{
			{Gender: model.GenderMale, Level: 1, Height: 175, Weight: 70, Biceps: 30, Chest: 95, Quads: 55, Calves: 35, Back: 45},
			{Gender: model.GenderFemale, Level: 1, Height: 165, Weight: 55, Biceps: 24, Chest: 85, Quads: 50, Calves: 32, Back: 40},
		},
		[]model.LiftCapacity{
			{Gender: model.GenderMale, Level: 1, BicepsCurl: 15, BenchPress: 40, Squat: 60, LatPulldown: 35},
			{Gender: model.GenderFemale, Level: 1, BicepsCurl: 8, BenchPress: 25, Squat: 40, LatPulldown: 20},
		},
		[]model.Endurance{
			{Gender: model.GenderMale, Level: 1, DistanceKm: 5},
			{Gender: model.GenderFemale, Level: 1, DistanceKm: 4},
		},
		[]model.GrowthFactors{
			{Gender: model.GenderMale, Height: 1.01, Weight: 1.1, Biceps: 1.1, Chest: 1.1, Quads: 1.1, Calves: 1.1, Back: 1.1,
				BicepsCurl: 1.15, BenchPress: 1.15, Squat: 1.15, LatPulldown: 1.15, LiftHigh: 1.25, Distance: 1.1},
			{Gender: model.GenderFemale, Height: 1.01, Weight: 1.1, Biceps: 1.1, Chest: 1.1, Quads: 1.1, Calves: 1.1, Back: 1.1,
				BicepsCurl: 1.15, BenchPress: 1.15, Squat: 1.15, LatPulldown: 1.15, LiftHigh: 1.25, Distance: 1.1},
		},
	)
}

func testJobs() []model.Job {
	return []model.Job{
		{ID: 1, Name: "Office Assistant I", JobType: "office", Level: 1, XPGained: 10, XPNeeded: 50, IntXP: 5, StaminaCost: 1, Length: 480, Money: 160},
		{ID: 2, Name: "Office Assistant II", JobType: "office", Level: 2, XPGained: 15, XPNeeded: 120, IntXP: 10, StaminaCost: 1, Length: 480, Money: 200, EntryLevelXP: 40},
		{ID: 3, Name: "Office Director", JobType: "office", Level: 3, XPGained: 20, XPNeeded: 480, StaminaCost: 1, Length: 240, Money: 750, Requirement: "office-master"},
		{ID: 10, Name: "Bouncer", JobType: "security", Level: 1, XPGained: 10, XPNeeded: 40, StrXP: 5, StaXP: 5, StaminaCost: 2, Length: 360, Money: 120, MinStr: 2},
	}
}

func testResolver() *Resolver {
	return NewResolver(testThresholds(), testScaler(), NewJobCatalog(testJobs()))
}

func testPerformer() *model.Performer {
	p := model.NewCharacter(7, "Alex", model.GenderMale)
	p.ID = 100
	p.Ledger.CurrentStamina = 5
	return p
}

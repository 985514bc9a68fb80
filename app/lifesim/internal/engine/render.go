package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z]+)\}`)

// placeholderFallbacks 无法解析时替换成的句子
var placeholderFallbacks = map[string]string{
	"height":      "an unknown height",
	"weight":      "an unknown weight",
	"biceps":      "an unmeasured biceps size",
	"chest":       "an unmeasured chest size",
	"quads":       "an unmeasured quad size",
	"calves":      "an unmeasured calf size",
	"back":        "an unmeasured back size",
	"bicepsCurl":  "an untested biceps curl weight",
	"benchPress":  "an untested bench press weight",
	"squat":       "an untested squat weight",
	"latPulldown": "an untested lat pulldown weight",
	"distance":    "an unknown distance",
	"speed":       "an unknown speed",
}

const unknownPlaceholder = "something unexpected"

// renderContext 按需查询缩放值，同一次渲染内只查询一次
type renderContext struct {
	scaler    *Scaler
	performer *model.Performer

	measurements *model.Measurements
	lift         *model.LiftCapacity
	endurance    *model.Endurance
	loaded       [3]bool
}

func (rc *renderContext) lookup(token string) (string, bool) {
	switch token {
	case "name":
		return nameOr(rc.performer), true
	case "height", "weight", "biceps", "chest", "quads", "calves", "back":
		m := rc.loadMeasurements()
		if m == nil {
			return "", false
		}
		v := map[string]float64{
			"height": m.Height, "weight": m.Weight, "biceps": m.Biceps, "chest": m.Chest,
			"quads": m.Quads, "calves": m.Calves, "back": m.Back,
		}[token]
		return formatNumber(v), true
	case "bicepsCurl", "benchPress", "squat", "latPulldown":
		l := rc.loadLift()
		if l == nil {
			return "", false
		}
		v := map[string]float64{
			"bicepsCurl": l.BicepsCurl, "benchPress": l.BenchPress, "squat": l.Squat, "latPulldown": l.LatPulldown,
		}[token]
		return formatNumber(v), true
	case "distance", "speed":
		e := rc.loadEndurance()
		if e == nil {
			return "", false
		}
		if token == "speed" {
			return formatNumber(e.Speed), true
		}
		return formatNumber(e.DistanceKm), true
	}
	return "", false
}

func (rc *renderContext) loadMeasurements() *model.Measurements {
	if !rc.loaded[0] {
		rc.loaded[0] = true
		if rc.scaler != nil {
			if m, err := rc.scaler.MeasurementsAt(rc.performer.Gender, rc.performer.Ledger.STR.Level); err == nil {
				rc.measurements = &m
			}
		}
	}
	return rc.measurements
}

func (rc *renderContext) loadLift() *model.LiftCapacity {
	if !rc.loaded[1] {
		rc.loaded[1] = true
		if rc.scaler != nil {
			if l, err := rc.scaler.LiftCapacityAt(rc.performer.Gender, rc.performer.Ledger.STR.Level); err == nil {
				rc.lift = &l
			}
		}
	}
	return rc.lift
}

func (rc *renderContext) loadEndurance() *model.Endurance {
	if !rc.loaded[2] {
		rc.loaded[2] = true
		if rc.scaler != nil {
			if e, err := rc.scaler.EnduranceAt(rc.performer.Gender, rc.performer.Ledger.STA.Level); err == nil {
				rc.endurance = &e
			}
		}
	}
	return rc.endurance
}

// Render 用表演者当前的缩放值替换模板中的占位符
// 未能解析的占位符替换为兜底句子，不会保留原始 {token}
func Render(tmpl string, p *model.Performer, scaler *Scaler) string {
	rc := &renderContext{scaler: scaler, performer: p}
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		token := strings.Trim(match, "{}")
		if v, ok := rc.lookup(token); ok {
			return v
		}
		if fb, ok := placeholderFallbacks[token]; ok {
			return fb
		}
		return unknownPlaceholder
	})
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func defaultMessage(p *model.Performer, action string) string {
	if p.Name == "" {
		return fmt.Sprintf("Finished %s.", action)
	}
	return fmt.Sprintf("%s finished %s.", p.Name, action)
}

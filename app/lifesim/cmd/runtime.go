package main

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/dao"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/engine"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/gamedata"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/metrics"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/ratelimit"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/service"
	"github.com/lk2023060901/lifesim/pkg/logger"
	"github.com/lk2023060901/lifesim/pkg/prometheus"
)

// Runtime 一次进程内装配完成的全部组件
type Runtime struct {
	Logger     logger.Logger
	Store      *dao.Store
	Tables     *gamedata.Holder
	Watcher    *gamedata.Watcher
	Prometheus *prometheus.Client
	Metrics    *metrics.Metrics

	Performers *service.PerformerService
	Actions    *service.ActionService
	Jobs       *service.JobService
	Queries    *service.QueryService
}

// 操作名，命令行子命令与 serve --stdin 共用
const (
	OpCreateCharacter  = "create-character"
	OpCreateCompanion  = "create-companion"
	OpLink             = "link"
	OpGrantAchievement = "grant-achievement"
	OpDelete           = "delete"
	OpExec             = "exec"
	OpSleep            = "sleep"
	OpAssign           = "assign"
	OpWork             = "work"
	OpPromote          = "promote"
	OpStatus           = "status"
	OpMeasurements     = "measurements"
	OpLift             = "lift"
	OpEndurance        = "endurance"
	OpHousehold        = "household"
	OpCatalog          = "catalog"
)

var errUnknownOp = errors.New("unknown operation")

// Request 一次操作请求
type Request struct {
	Op            string `json:"op"`
	UserID        int64  `json:"user_id"`
	Admin         bool   `json:"admin"`
	PerformerID   int64  `json:"performer_id"`
	TargetID      int64  `json:"target_id"` // link 的目标角色、create-companion 的主人
	JobID         int64  `json:"job_id"`
	SubActivityID int64  `json:"sub_activity_id"`
	LocationID    int64  `json:"location_id"`
	Name          string `json:"name"`
	Gender        string `json:"gender"`
}

// Response 统一输出
type Response struct {
	OK    bool   `json:"ok"`
	Code  string `json:"code"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func newResponse(data any, err error) Response {
	if err != nil {
		return Response{Code: errorCode(err), Error: err.Error()}
	}
	return Response{OK: true, Code: engine.Code(nil), Data: data}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, errUnknownOp):
		return "UNKNOWN_OPERATION"
	case errors.Is(err, service.ErrStorage):
		return "STORAGE"
	case errors.Is(err, ratelimit.ErrRateLimited):
		return "RATE_LIMITED"
	}
	return engine.Code(err)
}

type householdView struct {
	PerformerID int64 `json:"performerId"`
	Money       int64 `json:"money"`
}

// Dispatch 把请求分发到对应服务
func (rt *Runtime) Dispatch(ctx context.Context, req Request) (any, error) {
	actor := service.Actor{UserID: req.UserID, Admin: req.Admin}
	gender := model.Gender(strings.ToUpper(req.Gender))

	switch req.Op {
	case OpCreateCharacter:
		return rt.Performers.CreateCharacter(ctx, actor, req.Name, gender)
	case OpCreateCompanion:
		return rt.Performers.CreateCompanion(ctx, actor, req.TargetID, req.Name, gender)
	case OpLink:
		return rt.Performers.LinkCompanion(ctx, actor, req.PerformerID, req.TargetID)
	case OpGrantAchievement:
		return rt.Performers.GrantAchievement(ctx, actor, req.PerformerID, req.Name)
	case OpDelete:
		if err := rt.Performers.Delete(ctx, actor, req.PerformerID); err != nil {
			return nil, err
		}
		return map[string]int64{"deleted": req.PerformerID}, nil

	case OpExec:
		return outcomeView(rt.Actions.Execute(ctx, actor, req.PerformerID, req.SubActivityID))
	case OpSleep:
		return outcomeView(rt.Actions.Sleep(ctx, actor, req.PerformerID))
	case OpAssign:
		return outcomeView(rt.Jobs.Assign(ctx, actor, req.PerformerID, req.JobID))
	case OpWork:
		return outcomeView(rt.Jobs.Work(ctx, actor, req.PerformerID, req.JobID))
	case OpPromote:
		return outcomeView(rt.Jobs.Promote(ctx, actor, req.PerformerID, req.JobID))

	case OpStatus:
		return rt.Queries.Status(ctx, actor, req.PerformerID)
	case OpMeasurements:
		return rt.Queries.Measurements(ctx, actor, req.PerformerID)
	case OpLift:
		return rt.Queries.LiftCapacity(ctx, actor, req.PerformerID)
	case OpEndurance:
		return rt.Queries.Endurance(ctx, actor, req.PerformerID)
	case OpHousehold:
		total, err := rt.Queries.HouseholdMoney(ctx, actor, req.PerformerID)
		if err != nil {
			return nil, err
		}
		return householdView{PerformerID: req.PerformerID, Money: total}, nil
	case OpCatalog:
		return rt.Queries.Catalog(ctx, req.LocationID)
	}
	return nil, errors.Wrapf(errUnknownOp, "%q", req.Op)
}

// outcomeView 命令行只输出结算结果
func outcomeView(out *engine.Outcome, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return out.Result, nil
}

// Package engine 实现成长与经济规则：日历、属性账本、缩放、职业晋升与动作结算
// 所有函数都是纯计算，不做 I/O，调用方负责加锁与持久化
package engine

import "github.com/cockroachdb/errors"

// 业务规则错误，均为终态、不可重试
var (
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInsufficientResource = errors.New("insufficient resource")
	ErrRequirementNotMet    = errors.New("requirement not met")
	ErrNoHigherTier         = errors.New("no higher tier")
	ErrInvalidActionType    = errors.New("invalid action type")
)

// IsBusinessError 判断是否为规则拒绝（而非基础设施故障）
func IsBusinessError(err error) bool {
	return errors.IsAny(err,
		ErrNotFound,
		ErrForbidden,
		ErrInsufficientResource,
		ErrRequirementNotMet,
		ErrNoHigherTier,
		ErrInvalidActionType,
	)
}

// Code 返回稳定的错误码，供日志、指标与 CLI 输出使用
func Code(err error) string {
	switch {
	case err == nil:
		return "OK"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrInsufficientResource):
		return "INSUFFICIENT_RESOURCE"
	case errors.Is(err, ErrRequirementNotMet):
		return "REQUIREMENT_NOT_MET"
	case errors.Is(err, ErrNoHigherTier):
		return "NO_HIGHER_TIER"
	case errors.Is(err, ErrInvalidActionType):
		return "INVALID_ACTION_TYPE"
	default:
		return "INTERNAL"
	}
}

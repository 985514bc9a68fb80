package gamedata

import (
	"sync/atomic"

	"github.com/lk2023060901/lifesim/app/lifesim/internal/engine"
)

// Holder 持有当前生效的参考表，热加载时整体替换
type Holder struct {
	current atomic.Pointer[Tables]
	version atomic.Int64
}

// NewHolder 创建 Holder
func NewHolder(t *Tables) *Holder {
	h := &Holder{}
	h.Replace(t)
	return h
}

// Tables 当前参考表
func (h *Holder) Tables() *Tables {
	return h.current.Load()
}

// Resolver 当前参考表对应的结算器
func (h *Holder) Resolver() *engine.Resolver {
	return h.current.Load().Resolver
}

// Replace 替换参考表，返回新版本号
func (h *Holder) Replace(t *Tables) int64 {
	h.current.Store(t)
	return h.version.Add(1)
}

// Version 已加载的版本号，从 1 开始
func (h *Holder) Version() int64 {
	return h.version.Load()
}

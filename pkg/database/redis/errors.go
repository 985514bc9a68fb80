package redis

import "github.com/cockroachdb/errors"

var (
	// ErrNilConfig 配置为空
	ErrNilConfig = errors.New("redis: config is nil")

	// ErrInvalidConfig Standalone/Cluster 必须且只能配置一种
	ErrInvalidConfig = errors.New("redis: invalid config, specify exactly one of standalone or cluster")

	// ErrNil 键不存在
	ErrNil = errors.New("redis: nil")

	// ErrLockFailed 获取锁失败
	ErrLockFailed = errors.New("redis: failed to acquire lock")

	// ErrCorruptObject 缓存对象校验失败或无法解码
	ErrCorruptObject = errors.New("redis: corrupt object")

	// ErrLockNotHeld 解锁时锁已过期或被其他持有者占用
	ErrLockNotHeld = errors.New("redis: lock not held")
)

package idgen

// Generator ID 生成器
type Generator interface {
	NextID() (int64, error)
}

// GeneratorFunc 函数适配器，测试中用于固定序列
type GeneratorFunc func() (int64, error)

func (f GeneratorFunc) NextID() (int64, error) { return f() }

// Sequence 从 start 开始自增的生成器，仅用于测试与离线工具
func Sequence(start int64) Generator {
	next := start
	return GeneratorFunc(func() (int64, error) {
		id := next
		next++
		return id, nil
	})
}

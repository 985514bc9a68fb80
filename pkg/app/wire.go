package app

// Components 命令装配出的长驻组件与待清理资源
type Components struct {
	Servers []Server
	Closers []Closer
}

// Attach 将组件挂到 BaseApp 上
func Attach(a *BaseApp, comps Components) *BaseApp {
	a.AppendServer(comps.Servers...)
	a.AppendCloser(comps.Closers...)
	return a
}

// CloserFunc 将普通函数适配为 Closer
type CloserFunc func() error

func (f CloserFunc) Close() error { return f() }

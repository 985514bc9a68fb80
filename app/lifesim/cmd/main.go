package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
)

func main() {
	// 1. 信号取消进行中的操作
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	// 2. 加载配置、初始化日志与装配在各子命令的 PersistentPreRunE 中完成
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	// 3. 业务失败已经以 JSON 输出，只设置退出码
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

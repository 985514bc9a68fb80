package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/lk2023060901/lifesim/app/lifesim/internal/ratelimit"
	"github.com/lk2023060901/lifesim/pkg/logger"
)

// Console 从输入流逐行读取 JSON 请求并写出 JSON 响应（实现 app.Server）
// 每行一个 Request，输出每行一个 Response
type Console struct {
	rt      *Runtime
	in      io.Reader
	out     io.Writer
	limiter *ratelimit.Limiter
	logger  logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewConsole 创建控制台，limiter 为 nil 时不限流
func NewConsole(rt *Runtime, in io.Reader, out io.Writer, limiter *ratelimit.Limiter, l logger.Logger) *Console {
	ctx, cancel := context.WithCancel(context.Background())
	return &Console{
		rt:      rt,
		in:      in,
		out:     out,
		limiter: limiter,
		logger:  l.Named("console"),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Start 启动读取协程
func (c *Console) Start() error {
	go c.loop()
	c.logger.Info("console reading requests")
	return nil
}

// Stop 取消进行中的请求
// 阻塞在读取上的协程随进程退出，不等待
func (c *Console) Stop() error {
	c.once.Do(c.cancel)
	return nil
}

// Done 输入流结束后关闭
func (c *Console) Done() <-chan struct{} {
	return c.done
}

func (c *Console) loop() {
	defer close(c.done)

	scanner := bufio.NewScanner(c.in)
	enc := json.NewEncoder(c.out)
	for scanner.Scan() {
		if c.ctx.Err() != nil {
			return
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := enc.Encode(c.handle(line)); err != nil {
			c.logger.Error("failed to write response", "error", err)
			return
		}
	}
	if err := scanner.Err(); err != nil {
		c.logger.Error("console input failed", "error", err)
		return
	}
	c.logger.Info("console input closed")
}

func (c *Console) handle(line []byte) Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Response{Code: "BAD_REQUEST", Error: err.Error()}
	}
	if err := c.limiter.Allow(req.UserID); err != nil {
		return newResponse(nil, err)
	}
	return newResponse(c.rt.Dispatch(c.ctx, req))
}

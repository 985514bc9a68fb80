package gamedata

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/lk2023060901/lifesim/pkg/checksum"
	"github.com/lk2023060901/lifesim/pkg/logger"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher 监听数据目录中的 JSON 表，变化后整体重新加载
// 重新加载失败时保留旧表并记录错误
type Watcher struct {
	dir      string
	holder   *Holder
	logger   logger.Logger
	debounce time.Duration
	onReload func(version int64, err error)

	// digest 上次成功加载时数据目录的摘要，内容未变时跳过重新加载
	digest uint64

	fw   *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// WatcherOption Watcher 选项
type WatcherOption func(*Watcher)

// WithDebounce 合并连续事件的等待时间
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithReloadHook 每次重新加载后的回调（指标、测试）
func WithReloadHook(fn func(version int64, err error)) WatcherOption {
	return func(w *Watcher) { w.onReload = fn }
}

// NewWatcher 创建数据目录监听器
func NewWatcher(dir string, holder *Holder, l logger.Logger, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		dir:      dir,
		holder:   holder,
		logger:   l.Named("gamedata.watcher"),
		debounce: defaultDebounce,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start 开始监听（实现 app.Server）
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create fsnotify watcher")
	}
	if err := fw.Add(w.dir); err != nil {
		_ = fw.Close()
		return errors.Wrapf(err, "watch %s", w.dir)
	}
	w.fw = fw

	if w.digest, err = checksum.Tree(os.DirFS(w.dir), "*.json"); err != nil {
		w.logger.Warn("failed to digest game data directory", "dir", w.dir, "error", err)
	}

	w.wg.Add(1)
	go w.loop()

	w.logger.Info("watching game data directory", "dir", w.dir)
	return nil
}

// Stop 停止监听
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		if w.fw != nil {
			err = w.fw.Close()
		}
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".json") {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("game data changed", "file", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerCh = timer.C

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("fsnotify error", "error", err)

		case <-timerCh:
			timerCh = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	digest, derr := checksum.Tree(os.DirFS(w.dir), "*.json")
	if derr == nil && digest == w.digest {
		w.logger.Debug("game data content unchanged, skipping reload")
		return
	}

	tables, err := Load(w.dir, w.logger)
	if err != nil {
		w.logger.Error("failed to reload game data, keeping previous tables", "dir", w.dir, "error", err)
		if w.onReload != nil {
			w.onReload(w.holder.Version(), err)
		}
		return
	}

	if derr == nil {
		w.digest = digest
	}
	version := w.holder.Replace(tables)
	w.logger.Info("game data reloaded", "version", version)
	if w.onReload != nil {
		w.onReload(version, nil)
	}
}

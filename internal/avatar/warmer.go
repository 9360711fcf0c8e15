package avatar

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Warmer draws avatars in the background so the first page view after
// registration does not pay for rendering.
type Warmer struct {
	avatars *Service
	workers int
	logger  *logrus.Logger

	queue  chan string
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewWarmer(avatars *Service, workers, queueSize int, logger *logrus.Logger) *Warmer {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Warmer{
		avatars: avatars,
		workers: workers,
		logger:  logger,
		queue:   make(chan string, queueSize),
	}
}

func (w *Warmer) Start(ctx context.Context) {
	w.ctx, w.cancel = context.WithCancel(ctx)
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run()
	}
	w.logger.Infof("avatar warmer started with %d workers", w.workers)
}

// Enqueue schedules username for rendering. It never blocks; when the queue
// is full the avatar is drawn on first request instead.
func (w *Warmer) Enqueue(username string) bool {
	select {
	case w.queue <- username:
		return true
	default:
		w.logger.WithField("username", username).Warn("avatar queue full, skipping warm-up")
		return false
	}
}

func (w *Warmer) Shutdown() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.logger.Info("avatar warmer stopped")
}

func (w *Warmer) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case username := <-w.queue:
			if _, err := w.avatars.Avatar(w.ctx, username); err != nil {
				w.logger.WithField("username", username).Warnf("warm avatar: %v", err)
			}
		}
	}
}

// Package broadcast delivers admin announcements to every active profile.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"anonmatch/backend/internal/chathub"
	"anonmatch/backend/internal/config"
	"anonmatch/backend/internal/metrics"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrEmptyMessage is returned for a blank announcement.
var ErrEmptyMessage = errors.New("broadcast: message is empty")

// Recipients lists who receives an announcement.
type Recipients interface {
	ListActiveProfileIDs(ctx context.Context) ([]int64, error)
}

// Report tallies one broadcast run.
type Report struct {
	ID         uuid.UUID     `json:"id"`
	Recipients int           `json:"recipients"`
	Sent       int           `json:"sent"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration"`
}

type Service struct {
	Recipients Recipients
	Sender     chathub.Sender

	workers int
	limit   rate.Limit
	log     *zap.SugaredLogger
}

func NewService(r Recipients, sender chathub.Sender, cfg config.BroadcastConfig, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = zap.S()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &Service{
		Recipients: r,
		Sender:     sender,
		workers:    workers,
		limit:      limit,
		log:        log,
	}
}

// Run sends the announcement to every active profile. Deliveries are spread
// over a worker pool and throttled to the configured rate. A cancelled ctx
// counts every recipient not yet dispatched as failed.
func (s *Service) Run(ctx context.Context, text string) (*Report, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	report := &Report{ID: uuid.New()}
	log := s.log.With("broadcast_id", report.ID.String())
	started := time.Now()

	ids, err := s.Recipients.ListActiveProfileIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	report.Recipients = len(ids)

	pool, err := ants.NewPool(s.workers, ants.WithPanicHandler(func(p any) {
		log.Errorw("broadcast task panic", "panic", p, "stack", string(debug.Stack()))
	}))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	limiter := rate.NewLimiter(s.limit, 1)
	body := config.BroadcastMessageTitle + text

	var (
		wg           sync.WaitGroup
		sent, failed atomic.Int64
	)
	for i, id := range ids {
		if err := limiter.Wait(ctx); err != nil {
			failed.Add(int64(len(ids) - i))
			log.Warnf("broadcast interrupted after %d of %d recipients: %v", i, len(ids), err)
			break
		}

		wg.Add(1)
		recipient := id
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := s.Sender.Send(ctx, recipient, body, nil); err != nil {
				failed.Add(1)
				metrics.BroadcastMessagesTotal.WithLabelValues(metrics.ResultFailed).Inc()
				log.Debugf("broadcast to %d failed: %v", recipient, err)
				return
			}
			sent.Add(1)
			metrics.BroadcastMessagesTotal.WithLabelValues(metrics.ResultSent).Inc()
		})
		if submitErr != nil {
			wg.Done()
			failed.Add(1)
			log.Errorf("ERROR: failed to schedule broadcast to %d: %v", recipient, submitErr)
		}
	}
	wg.Wait()

	report.Sent = int(sent.Load())
	report.Failed = int(failed.Load())
	report.Duration = time.Since(started)
	log.Infof("Broadcast complete: %d sent, %d failed", report.Sent, report.Failed)
	return report, nil
}

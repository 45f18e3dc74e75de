package consumer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"golang-headline-signal/internal/scoring/config"
	"golang-headline-signal/internal/scoring/dto"
	"golang-headline-signal/pkg/logger"

	"github.com/stretchr/testify/assert"
)

type countingStreamService struct {
	tasks   atomic.Int64
	retries atomic.Int64
}

func (s *countingStreamService) ProcessTask(ctx context.Context) {
	s.tasks.Add(1)
	select {
	case <-ctx.Done():
	case <-time.After(time.Millisecond):
	}
}

func (s *countingStreamService) ProcessRetries(context.Context) {
	s.retries.Add(1)
}

func (s *countingStreamService) Publish(context.Context, []dto.StreamHeadline) error {
	return nil
}

func TestRedisConsumer_StartStop(t *testing.T) {
	cfg := &config.Config{Scoring: config.Scoring{
		StreamTimeout:       time.Second,
		StreamRetryInterval: 5 * time.Millisecond,
	}}
	svc := &countingStreamService{}
	c := NewRedisConsumer(cfg, svc, logger.NewNop())

	c.Start(context.Background())
	assert.Eventually(t, func() bool {
		return svc.tasks.Load() > 0 && svc.retries.Load() > 0
	}, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		c.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	c.Stop()
}

func TestRedisConsumer_StopsOnContextCancel(t *testing.T) {
	cfg := &config.Config{Scoring: config.Scoring{
		StreamTimeout:       time.Second,
		StreamRetryInterval: time.Hour,
	}}
	c := NewRedisConsumer(cfg, &countingStreamService{}, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop on cancel")
	}
}

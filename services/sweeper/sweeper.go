package sweepersvc

import (
	"context"
	"fmt"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/ratiba/core"
)

// Completer stores the completion of schedules whose completion window has elapsed.
type Completer interface {
	PersistCompletions(ctx context.Context) (int, error)
}

// Sweeper periodically persists derived completions.
type Sweeper struct {
	cron    *cron.Cron
	svc     Completer
	logger  core.Logger
	timeout time.Duration
	observe func(completed int, err error)
}

func New(svc Completer, logger core.Logger, interval time.Duration, observe func(int, error)) (*Sweeper, error) {
	vala.BeginValidation().Validate(
		vala.IsNotNil(svc, "svc"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	if interval <= 0 {
		return nil, errors.New("sweep interval must be positive")
	}
	s := &Sweeper{
		cron:    cron.New(),
		svc:     svc,
		logger:  logger,
		timeout: interval,
		observe: observe,
	}
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), s.run); err != nil {
		return nil, errors.Wrap(err, "scheduling completion sweep")
	}
	return s, nil
}

// Sweep runs one pass and returns how many schedules were completed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	n, err := s.svc.PersistCompletions(ctx)
	if s.observe != nil {
		s.observe(n, err)
	}
	return n, err
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Error("completion sweep failed", err)
		return
	}
	if n > 0 {
		s.logger.Info(fmt.Sprintf("completion sweep: %d schedule(s) done", n))
	}
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

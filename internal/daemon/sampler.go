package daemon

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/firecorners/cornerd/internal/domain"
	"github.com/firecorners/cornerd/internal/usecase"
)

// Snapshot is the externally visible state of the sampling loop.
type Snapshot struct {
	Corner      domain.Corner
	Position    domain.Point
	Display     domain.Size
	LastSample  time.Time
	LastTrigger map[domain.Corner]time.Time
	Failures    int
}

// Sampler polls the pointer and drives the corner state machine.
type Sampler struct {
	source     domain.PointerSource
	holder     *ConfigHolder
	dispatcher *usecase.Dispatcher
	config     Config
	logger     *zap.Logger
	now        func() time.Time

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewSampler creates a sampler.
func NewSampler(source domain.PointerSource, holder *ConfigHolder, dispatcher *usecase.Dispatcher, config Config, logger *zap.Logger) *Sampler {
	return &Sampler{
		source:     source,
		holder:     holder,
		dispatcher: dispatcher,
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
}

// Snapshot returns a copy of the latest published state.
func (s *Sampler) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.snapshot
	out.LastTrigger = make(map[domain.Corner]time.Time, len(s.snapshot.LastTrigger))
	for c, t := range s.snapshot.LastTrigger {
		out.LastTrigger[c] = t
	}
	return out
}

// Run samples until ctx is canceled. Each call starts from the idle state.
func (s *Sampler) Run(ctx context.Context) error {
	state := usecase.CornerState{}
	failures := 0
	s.publish(state, Snapshot{})

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("sampler stopping")
			return nil
		case <-timer.C:
			var next time.Duration
			state, failures, next = s.tick(state, failures)
			timer.Reset(next)
		}
	}
}

// tick takes one sample and returns the new state, the consecutive failure
// count and the delay before the next sample.
func (s *Sampler) tick(state usecase.CornerState, failures int) (usecase.CornerState, int, time.Duration) {
	pos, size, err := s.read()
	if err != nil {
		failures++
		switch {
		case failures == 1:
			s.logger.Warn("pointer sample failed", zap.Error(err))
		case failures == s.config.BackoffAfter:
			s.logger.Warn("pointer sampling keeps failing, backing off",
				zap.Int("failures", failures),
				zap.Duration("interval", s.config.BackoffInterval),
				zap.Error(err))
		default:
			s.logger.Debug("pointer sample failed", zap.Int("failures", failures), zap.Error(err))
		}
		s.setFailures(failures)

		if failures >= s.config.BackoffAfter {
			return state, failures, s.config.BackoffInterval
		}
		return state, failures, s.interval(state)
	}
	if failures >= s.config.BackoffAfter {
		s.logger.Info("pointer sampling recovered", zap.Int("failures", failures))
	}
	failures = 0

	doc := s.holder.Get()
	now := s.now()
	next, tr := usecase.Step(state, usecase.Sample{Position: pos, Display: size, At: now}, doc.Settings)

	switch tr.Kind {
	case usecase.TransitionEntered:
		s.logger.Debug("entered corner", zap.String("corner", tr.Corner.String()), zap.Int("x", pos.X), zap.Int("y", pos.Y))
	case usecase.TransitionLeft:
		s.logger.Debug("left corner", zap.String("corner", tr.Corner.String()))
	case usecase.TransitionTrigger:
		actions := doc.Actions(tr.Corner)
		triggerID, started := s.dispatcher.Dispatch(tr.Corner, actions)
		if started {
			s.logger.Info("corner triggered",
				zap.String("corner", tr.Corner.String()),
				zap.String("trigger_id", triggerID),
				zap.Int("actions", len(actions)))
		}
	}

	s.publish(next, Snapshot{Position: pos, Display: size, LastSample: now})
	return next, failures, s.interval(next)
}

func (s *Sampler) read() (domain.Point, domain.Size, error) {
	size, err := s.source.DisplaySize()
	if err != nil {
		return domain.Point{}, domain.Size{}, err
	}
	pos, err := s.source.Position()
	if err != nil {
		return domain.Point{}, domain.Size{}, err
	}
	return pos, size, nil
}

func (s *Sampler) interval(state usecase.CornerState) time.Duration {
	if state.Idle() {
		return s.config.IdleInterval
	}
	return s.config.ActiveInterval
}

func (s *Sampler) publish(state usecase.CornerState, snap Snapshot) {
	snap.Corner = state.ActiveCorner
	snap.LastTrigger = state.LastTrigger

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
}

func (s *Sampler) setFailures(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Failures = n
}

// Package backend следит за единственным процессом бэкенда, к которому
// прокси пересылает запросы: запускает его по первому запросу, ждёт
// прогрева и сбрасывает слот, когда процесс завершается.
package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/issafronov/shortener-front/internal/middleware/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultWarmup время, которое даётся бэкенду на запуск
const DefaultWarmup = 2 * time.Second

// State состояние слота процесса
type State int

const (
	Absent State = iota
	Starting
	Running
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Starting:
		return "starting"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

var (
	// ErrExited процесс завершился до окончания прогрева
	ErrExited = errors.New("backend process exited")
	// ErrStopped супервизор остановлен
	ErrStopped = errors.New("backend supervisor stopped")
)

// Handle сведения о запущенном процессе
type Handle struct {
	Pid       int
	StartedAt time.Time
}

// Supervisor владеет слотом процесса. Одновременные запросы, пришедшие пока
// процесса нет, дожидаются одного общего запуска.
type Supervisor struct {
	launcher Launcher
	warmup   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	starts singleflight.Group

	mu     sync.Mutex
	state  State
	proc   Process
	handle Handle
	done   chan struct{}
	closed bool
}

// NewSupervisor создаёт супервизор; warmup < 0 заменяется на DefaultWarmup
func NewSupervisor(l Launcher, warmup time.Duration) *Supervisor {
	if warmup < 0 {
		warmup = DefaultWarmup
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{launcher: l, warmup: warmup, ctx: ctx, cancel: cancel}
}

// State возвращает текущее состояние слота
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ensure гарантирует, что бэкенд запущен. Работающий процесс повторно не
// проверяется. Отмена ctx прекращает ожидание, но не общий запуск.
func (s *Supervisor) Ensure(ctx context.Context) (Handle, error) {
	s.mu.Lock()
	if s.state == Running {
		h := s.handle
		s.mu.Unlock()
		return h, nil
	}
	s.mu.Unlock()

	ch := s.starts.DoChan("start", func() (interface{}, error) {
		return s.start()
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return Handle{}, res.Err
		}
		return res.Val.(Handle), nil
	case <-ctx.Done():
		return Handle{}, ctx.Err()
	}
}

func (s *Supervisor) start() (Handle, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Handle{}, ErrStopped
	}
	if s.state == Running {
		h := s.handle
		s.mu.Unlock()
		return h, nil
	}
	s.state = Starting
	s.mu.Unlock()

	proc, err := s.launcher.Launch(s.ctx)
	if err != nil {
		s.mu.Lock()
		s.state = Absent
		s.mu.Unlock()
		logger.Log.Error("failed to start backend process", zap.Error(err))
		return Handle{}, fmt.Errorf("start backend: %w", err)
	}

	h := Handle{Pid: proc.Pid(), StartedAt: time.Now()}
	exited := make(chan error, 1)
	done := make(chan struct{})

	s.mu.Lock()
	s.proc = proc
	s.handle = h
	s.done = done
	s.mu.Unlock()

	go s.watch(proc, exited, done)

	timer := time.NewTimer(s.warmup)
	defer timer.Stop()
	select {
	case <-timer.C:
	case err := <-exited:
		return Handle{}, fmt.Errorf("%w during warm-up: %v", ErrExited, err)
	case <-s.ctx.Done():
		return Handle{}, ErrStopped
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc != proc {
		return Handle{}, fmt.Errorf("%w during warm-up", ErrExited)
	}
	s.state = Running
	logger.Log.Info("backend process ready", zap.Int("pid", h.Pid), zap.Duration("warmup", s.warmup))
	return h, nil
}

// watch ждёт завершения процесса и освобождает слот при любом коде выхода
func (s *Supervisor) watch(proc Process, exited chan<- error, done chan struct{}) {
	err := proc.Wait()

	s.mu.Lock()
	if s.proc == proc {
		s.proc = nil
		s.handle = Handle{}
		s.state = Absent
	}
	s.mu.Unlock()

	logger.Log.Info("backend process exited", zap.Int("pid", proc.Pid()), zap.Error(err))
	exited <- err
	close(done)
}

// Stop завершает процесс бэкенда и запрещает новые запуски. Если запуск
// ещё идёт, Stop дожидается его и завершает запущенный процесс.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()

	ch := s.starts.DoChan("start", func() (interface{}, error) {
		return s.start()
	})
	select {
	case <-ch:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	proc, done := s.proc, s.done
	s.mu.Unlock()

	if proc != nil {
		if err := proc.Kill(); err != nil {
			logger.Log.Warn("failed to kill backend process", zap.Int("pid", proc.Pid()), zap.Error(err))
		}
	}
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

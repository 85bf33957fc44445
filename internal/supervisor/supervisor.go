// Package supervisor implements Supervisor (C8): it spawns WORKER_COUNT
// worker processes, replaces any that exit while it is running, drives
// StuckJobRecovery on a timer, and carries out the graceful shutdown
// sequence on SIGTERM/SIGINT.
//
// Workers are spawned as independent OS processes via os/exec rather than
// goroutines: no worker may inherit open model memory from its parent,
// which only a fresh process image (not a shared-heap goroutine)
// guarantees. This package's shape follows a ticker-driven background loop
// that stops on context cancellation, applied to OS-process liveness
// instead of a Redis heartbeat.
package supervisor

import (
	"context"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/remiges-tech/logharbour/logharbour"

	"inference-scheduler/internal/scheduler"
)

const (
	livenessInterval    = 3 * time.Second
	shutdownGracePeriod = 30 * time.Second
)

// Recovery is the subset of StuckJobRecovery the supervisor depends on.
type Recovery interface {
	Run(ctx context.Context) error
}

var _ Recovery = (*scheduler.StuckJobRecovery)(nil)

// Supervisor owns the worker process pool and the recovery timer.
type Supervisor struct {
	workerBin        string
	workerArgs       []string
	workerCount      int
	recoveryInterval time.Duration
	recovery         Recovery
	logger           *logharbour.Logger

	mu     sync.Mutex
	procs  map[int]*workerProc
	nextID int
}

type workerProc struct {
	cmd  *exec.Cmd
	done chan struct{}
}

// New builds a Supervisor that spawns workerCount copies of the binary at
// workerBin (with workerArgs) and runs recovery every recoveryInterval.
func New(workerBin string, workerArgs []string, workerCount int, recoveryInterval time.Duration, recovery Recovery, logger *logharbour.Logger) *Supervisor {
	return &Supervisor{
		workerBin:        workerBin,
		workerArgs:       workerArgs,
		workerCount:      workerCount,
		recoveryInterval: recoveryInterval,
		recovery:         recovery,
		logger:           logger,
		procs:            make(map[int]*workerProc),
	}
}

// Run spawns the worker pool and blocks until ctx is cancelled, at which
// point it carries out the graceful shutdown sequence before returning.
func (s *Supervisor) Run(ctx context.Context) error {
	exited := make(chan int, s.workerCount)

	for i := 0; i < s.workerCount; i++ {
		s.spawn(exited)
	}

	recoveryTicker := time.NewTicker(s.recoveryInterval)
	defer recoveryTicker.Stop()

	livenessTicker := time.NewTicker(livenessInterval)
	defer livenessTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil

		case id := <-exited:
			s.mu.Lock()
			delete(s.procs, id)
			s.mu.Unlock()
			s.logger.Warn().LogActivity("worker exited, spawning replacement", map[string]any{"worker_id": id})
			s.spawn(exited)

		case <-livenessTicker.C:
			// Liveness is observed passively through the exited channel;
			// this tick only gives operators tailing logs a 3s heartbeat.
			s.logger.Info().LogActivity("liveness check", map[string]any{"live_workers": s.liveCount()})

		case <-recoveryTicker.C:
			if err := s.recovery.Run(ctx); err != nil {
				s.logger.Error(err).LogActivity("stuck job recovery pass failed", nil)
			}
		}
	}
}

func (s *Supervisor) liveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.procs)
}

// spawn starts one worker process and a goroutine that reports its exit on
// exited.
func (s *Supervisor) spawn(exited chan<- int) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.mu.Unlock()

	cmd := exec.Command(s.workerBin, s.workerArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		s.logger.Error(err).LogActivity("failed to start worker", map[string]any{"worker_id": id})
		exited <- id
		return
	}

	proc := &workerProc{cmd: cmd, done: make(chan struct{})}
	s.mu.Lock()
	s.procs[id] = proc
	s.mu.Unlock()

	s.logger.Info().LogActivity("worker spawned", map[string]any{"worker_id": id, "pid": cmd.Process.Pid})

	go func() {
		_ = cmd.Wait()
		close(proc.done)
		exited <- id
	}()
}

// shutdown signals every live worker at once, waits for them against one
// shared 30s deadline, and force-kills any still alive when it passes.
func (s *Supervisor) shutdown() {
	s.mu.Lock()
	procs := make([]*workerProc, 0, len(s.procs))
	for _, p := range s.procs {
		procs = append(procs, p)
	}
	s.mu.Unlock()

	for _, p := range procs {
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Signal(syscall.SIGTERM)
		}
	}

	deadline := time.Now().Add(shutdownGracePeriod)
	for _, p := range procs {
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		timer := time.NewTimer(remaining)
		select {
		case <-p.done:
			timer.Stop()
		case <-timer.C:
			if p.cmd.Process != nil {
				s.logger.Warn().LogActivity("force-killing worker past shutdown grace period", map[string]any{"pid": p.cmd.Process.Pid})
				_ = p.cmd.Process.Kill()
			}
		}
	}
}

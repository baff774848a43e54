// SkyCart Core
// Copyright (c) 2026 The SkyCart Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of SkyCart Core.
//
// SkyCart Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SkyCart Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with SkyCart Core.  If not, see <http://www.gnu.org/licenses/>.

package mount

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/SkyCartProject/skycart-core/pkg/drives"
	"github.com/SkyCartProject/skycart-core/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ErrRecoveryExhausted is the terminal condition: consecutive recovery
// failures exceeded the configured cap and operator intervention is needed.
var ErrRecoveryExhausted = errors.New("mount recovery attempts exhausted")

// stopWaitBound caps how long Stop waits for an in-flight attempt.
const stopWaitBound = 10 * time.Second

// State is the supervisor's position in the mount lifecycle.
type State string

const (
	StateUnmounted  State = "unmounted"
	StateMounting   State = "mounting"
	StateMounted    State = "mounted"
	StateLost       State = "lost"
	StateRecovering State = "recovering"
	StateFailed     State = "failed"
)

// Config bounds the supervisor's behavior. MaxRecoveryFailures of zero
// means never give up.
type Config struct {
	ImagePath           string
	MountPoint          string
	CheckInterval       time.Duration
	RemountRetryDelay   time.Duration
	MountTimeout        time.Duration
	HealthFailThreshold int
	MaxRecoveryFailures int
}

// Callbacks are fire-and-forget notifications. They must not block; a
// panicking callback is logged and never takes down the supervisor.
type Callbacks struct {
	OnMountSuccess   func(drives.Volume)
	OnMountFailure   func(error)
	OnDriveLost      func()
	OnDriveRecovered func(drives.Volume)
}

// Stats are monotonically accumulated for the lifetime of one supervisor
// instance; they reset only on process restart.
type Stats struct {
	TotalChecks         int
	FailedChecks        int
	MountAttempts       int
	MountSuccesses      int
	ConsecutiveFailures int
	Uptime              time.Duration
}

// Supervisor owns the lifecycle of one supervised mount point.
type Supervisor struct {
	startTime     time.Time
	lastAttempt   time.Time
	clock         clockwork.Clock
	mounter       Mounter
	cancel        context.CancelFunc
	done          chan struct{}
	cb            Callbacks
	state         State
	cfg           Config
	stats         Stats
	healthFails   int
	recoveryFails int
	mu            syncutil.RWMutex
	stopOnce      sync.Once
}

// NewSupervisor creates a Supervisor in StateUnmounted. A nil clock uses
// the real clock.
func NewSupervisor(mounter Mounter, cfg Config, cb Callbacks, clock clockwork.Clock) *Supervisor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Supervisor{
		mounter: mounter,
		cfg:     cfg,
		cb:      cb,
		clock:   clock,
		state:   StateUnmounted,
		done:    make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Statistics returns a snapshot of the accumulated counters.
func (s *Supervisor) Statistics() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := s.stats
	if !s.startTime.IsZero() {
		stats.Uptime = s.clock.Since(s.startTime)
	}
	return stats
}

// Run drives the supervision loop until ctx is canceled or recovery is
// exhausted. It performs an initial mount attempt, then one health check
// or recovery attempt per tick.
func (s *Supervisor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.startTime = s.clock.Now()
	s.mu.Unlock()
	defer close(s.done)
	defer cancel()

	if err := s.EnsureMounted(ctx); err != nil {
		log.Warn().Err(err).Msg("initial mount attempt failed")
	}

	ticker := s.clock.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.release()
			return nil
		case <-ticker.Chan():
			if err := s.tick(ctx); err != nil {
				s.release()
				return err
			}
		}
	}
}

// Stop cancels the loop, waits (bounded) for the current attempt to
// finish, and is safe to call multiple times. It does not forcibly abort
// an in-flight mount attempt.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() {
		s.mu.RLock()
		cancel := s.cancel
		s.mu.RUnlock()
		if cancel == nil {
			// Run was never started.
			return
		}
		cancel()

		select {
		case <-s.done:
		case <-time.After(stopWaitBound):
			log.Warn().Msg("supervisor stop timed out waiting for shutdown")
		}
	})
}

// tick performs one supervision step: a health check while mounted, or at
// most one recovery attempt otherwise. Returning an error terminates Run.
func (s *Supervisor) tick(ctx context.Context) error {
	s.mu.Lock()
	s.stats.TotalChecks++
	state := s.state
	s.mu.Unlock()

	switch state {
	case StateMounted:
		s.checkHealth(ctx)
		return nil
	case StateUnmounted, StateLost, StateRecovering:
		return s.attemptRecovery(ctx)
	case StateMounting:
		// an attempt is mid-flight; nothing to do this tick
		return nil
	case StateFailed:
		return ErrRecoveryExhausted
	default:
		return nil
	}
}

// checkHealth probes the mount: the primitive must still list the mount
// path and a directory listing must succeed. Crossing the consecutive
// failure threshold transitions Mounted -> Lost exactly once.
func (s *Supervisor) checkHealth(ctx context.Context) {
	healthy := s.probeMount(ctx)
	if healthy {
		s.mu.Lock()
		s.healthFails = 0
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.healthFails++
	s.stats.FailedChecks++
	fails := s.healthFails
	threshold := s.cfg.HealthFailThreshold
	lost := fails >= threshold && s.state == StateMounted
	if lost {
		s.state = StateLost
		s.healthFails = 0
	}
	s.mu.Unlock()

	log.Warn().
		Int("consecutive", fails).
		Int("threshold", threshold).
		Msg("mount health check failed")

	if lost {
		log.Error().Str("mount", s.cfg.MountPoint).Msg("mounted drive lost")
		s.notifyLost()
	}
}

func (s *Supervisor) probeMount(ctx context.Context) bool {
	volumes, err := s.mounter.List(ctx)
	if err != nil {
		return false
	}
	found := false
	for _, vol := range volumes {
		if vol.MountPath == s.cfg.MountPoint {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	if _, err := os.ReadDir(s.cfg.MountPoint); err != nil {
		return false
	}
	return true
}

// attemptRecovery runs at most one mount attempt per tick, gated by the
// remount retry delay so the failure rate stays bounded and observable.
func (s *Supervisor) attemptRecovery(ctx context.Context) error {
	s.mu.Lock()
	if !s.lastAttempt.IsZero() &&
		s.clock.Since(s.lastAttempt) < s.cfg.RemountRetryDelay {
		s.mu.Unlock()
		return nil
	}
	if s.state == StateLost {
		s.state = StateRecovering
	}
	s.mu.Unlock()

	if err := s.EnsureMounted(ctx); err != nil {
		s.mu.Lock()
		s.recoveryFails++
		s.stats.ConsecutiveFailures = s.recoveryFails
		exhausted := s.cfg.MaxRecoveryFailures > 0 &&
			s.recoveryFails >= s.cfg.MaxRecoveryFailures
		if exhausted {
			s.state = StateFailed
		}
		s.mu.Unlock()

		if exhausted {
			log.Error().
				Int("failures", s.cfg.MaxRecoveryFailures).
				Msg("recovery cap exceeded, giving up")
			return fmt.Errorf("%w: %d consecutive failures",
				ErrRecoveryExhausted, s.cfg.MaxRecoveryFailures)
		}
	}
	return nil
}

// EnsureMounted mounts the image if it is not already mounted. Safe to
// call from outside the loop (e.g. on demand before a sync pass).
func (s *Supervisor) EnsureMounted(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateMounted {
		s.mu.Unlock()
		return nil
	}
	wasLost := s.state == StateLost || s.state == StateRecovering
	prevState := s.state
	s.state = StateMounting
	s.stats.MountAttempts++
	s.lastAttempt = s.clock.Now()
	s.mu.Unlock()

	mctx := ctx
	if s.cfg.MountTimeout > 0 {
		var cancel context.CancelFunc
		mctx, cancel = context.WithTimeout(ctx, s.cfg.MountTimeout)
		defer cancel()
	}

	result, err := s.mounter.Mount(mctx, s.cfg.ImagePath, s.cfg.MountPoint)
	if err != nil {
		s.mu.Lock()
		if wasLost {
			s.state = StateLost
		} else {
			s.state = prevState
		}
		s.mu.Unlock()

		log.Warn().Err(err).Str("status", string(result.Status)).
			Msg("mount attempt failed")
		s.notifyFailure(err)
		return err
	}

	assigned := result.AssignedPath
	if assigned == "" {
		assigned = s.cfg.MountPoint
	}

	s.mu.Lock()
	s.state = StateMounted
	s.stats.MountSuccesses++
	s.healthFails = 0
	s.recoveryFails = 0
	s.stats.ConsecutiveFailures = 0
	s.mu.Unlock()

	vol := s.lookupVolume(ctx, assigned)
	log.Info().Str("mount", assigned).Msg("image mounted")
	if wasLost {
		s.notifyRecovered(vol)
	} else {
		s.notifySuccess(vol)
	}
	return nil
}

// lookupVolume resolves the mounted volume's snapshot for callbacks,
// falling back to a minimal record when the primitive cannot list it yet.
func (s *Supervisor) lookupVolume(ctx context.Context, mountPath string) drives.Volume {
	volumes, err := s.mounter.List(ctx)
	if err == nil {
		for _, vol := range volumes {
			if vol.MountPath == mountPath {
				return vol
			}
		}
	}
	return drives.Volume{MountPath: mountPath}
}

// release unmounts on shutdown, best effort with a fresh bounded context.
func (s *Supervisor) release() {
	s.mu.RLock()
	mounted := s.state == StateMounted
	s.mu.RUnlock()
	if !mounted {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopWaitBound)
	defer cancel()
	if err := s.mounter.Unmount(ctx, s.cfg.MountPoint, false); err != nil {
		log.Warn().Err(err).Msg("failed to release mount on shutdown")
		return
	}

	s.mu.Lock()
	s.state = StateUnmounted
	s.mu.Unlock()
}

func (s *Supervisor) notifySuccess(vol drives.Volume) {
	if s.cb.OnMountSuccess != nil {
		safeNotify(func() { s.cb.OnMountSuccess(vol) })
	}
}

func (s *Supervisor) notifyFailure(err error) {
	if s.cb.OnMountFailure != nil {
		safeNotify(func() { s.cb.OnMountFailure(err) })
	}
}

func (s *Supervisor) notifyLost() {
	if s.cb.OnDriveLost != nil {
		safeNotify(func() { s.cb.OnDriveLost() })
	}
}

func (s *Supervisor) notifyRecovered(vol drives.Volume) {
	if s.cb.OnDriveRecovered != nil {
		safeNotify(func() { s.cb.OnDriveRecovered(vol) })
	}
}

func safeNotify(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("notification callback panicked")
		}
	}()
	fn()
}

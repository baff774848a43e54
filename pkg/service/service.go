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

// Package service wires detection, validation, mount supervision and the
// sync engine into one long-running loop.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/SkyCartProject/skycart-core/pkg/config"
	"github.com/SkyCartProject/skycart-core/pkg/database/historydb"
	"github.com/SkyCartProject/skycart-core/pkg/drives"
	"github.com/SkyCartProject/skycart-core/pkg/helpers/syncutil"
	"github.com/SkyCartProject/skycart-core/pkg/ledger"
	"github.com/SkyCartProject/skycart-core/pkg/mount"
	"github.com/SkyCartProject/skycart-core/pkg/retry"
	"github.com/SkyCartProject/skycart-core/pkg/syncengine"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// maxRetryDelay caps the exponential backoff between copy retries.
const maxRetryDelay = 30 * time.Second

// Deps are the collaborators the service runs. Supervisor and History are
// optional; Detector, Identifier, Validator and Clock default when nil.
type Deps struct {
	Detector   drives.Detector
	Identifier *drives.Identifier
	Validator  *drives.Validator
	Supervisor *mount.Supervisor
	History    *historydb.HistoryDB
	Ledger     *ledger.Ledger
	Clock      clockwork.Clock
	WatchDir   string
}

// Service owns the device lifecycle: scan, identify, validate, sync,
// record.
type Service struct {
	cfg        *config.Instance
	detector   drives.Detector
	identifier *drives.Identifier
	validator  *drives.Validator
	supervisor *mount.Supervisor
	history    *historydb.HistoryDB
	ldg        *ledger.Ledger
	planner    *syncengine.Planner
	executor   *syncengine.Executor
	clock      clockwork.Clock
	watchDir   string

	scanRequests chan struct{}
	passLocks    map[string]*semaphore.Weighted
	mu           syncutil.Mutex
}

// New assembles a Service from config and collaborators.
func New(cfg *config.Instance, deps Deps) *Service {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Detector == nil {
		deps.Detector = drives.NewSystemDetector()
	}
	if deps.Identifier == nil {
		deps.Identifier = drives.NewIdentifier(nil)
	}
	if deps.Validator == nil {
		deps.Validator = drives.NewValidator(nil, drives.ValidatorConfig{
			Filesystems:      cfg.Device().Filesystems,
			MinCapacityBytes: cfg.MinCapacityBytes(),
			MaxCapacityBytes: cfg.MaxCapacityBytes(),
		})
	}

	syn := cfg.Sync()
	policy := retry.Policy{
		MaxRetries: syn.MaxRetries,
		BaseDelay:  cfg.RetryBaseDelay(),
		MaxDelay:   maxRetryDelay,
	}

	return &Service{
		cfg:          cfg,
		detector:     deps.Detector,
		identifier:   deps.Identifier,
		validator:    deps.Validator,
		supervisor:   deps.Supervisor,
		history:      deps.History,
		ldg:          deps.Ledger,
		planner:      syncengine.NewPlanner(syn.SourceRoots, nil),
		executor:     syncengine.NewExecutor(nil, deps.Clock, policy, cfg.FreeSpaceReserveBytes()),
		clock:        deps.Clock,
		watchDir:     deps.WatchDir,
		scanRequests: make(chan struct{}, 1),
		passLocks:    make(map[string]*semaphore.Weighted),
	}
}

// Start runs the service loops until ctx is canceled. The mount
// supervisor exhausting recovery is the only error that propagates;
// everything else is logged and survived.
func (s *Service) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if s.supervisor != nil {
		g.Go(func() error {
			return s.supervisor.Run(ctx)
		})
	}
	g.Go(func() error {
		return s.runScanLoop(ctx)
	})
	g.Go(func() error {
		return s.runScheduler(ctx)
	})
	if s.watchDir != "" {
		g.Go(func() error {
			return s.runWatcher(ctx)
		})
	}

	log.Info().Msg("service started")
	err := g.Wait()
	log.Info().Msg("service stopped")
	return err //nolint:wrapcheck // group returns this package's own errors
}

// RequestScan asks the scan loop to run a pass soon. Requests are
// coalesced; asking while a request is pending is a no-op.
func (s *Service) RequestScan() {
	select {
	case s.scanRequests <- struct{}{}:
	default:
	}
}

// runScanLoop runs a device scan on a fixed cadence and whenever a scan
// is requested by the watcher or scheduler.
func (s *Service) runScanLoop(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.cfg.DeviceScanInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			s.scanOnce(ctx)
		case <-s.scanRequests:
			s.scanOnce(ctx)
		}
	}
}

// scanOnce enumerates volumes and runs the full pipeline on each one:
// identify by content, validate, then sync. Per-volume problems are
// logged and never stop the scan.
func (s *Service) scanOnce(ctx context.Context) {
	volumes, err := s.detector.Scan(ctx)
	if err != nil {
		log.Error().Err(err).Msg("device scan failed")
		return
	}

	for _, vol := range volumes {
		dev, ok := s.identifier.Identify(vol)
		if !ok {
			continue
		}

		valid, reasons, err := s.validator.Validate(ctx, dev)
		if err != nil {
			log.Warn().Str("mount", vol.MountPath).Err(err).
				Msg("device validation aborted")
			continue
		}
		if !valid {
			log.Info().
				Str("mount", vol.MountPath).
				Str("reasons", strings.Join(reasons, "; ")).
				Msg("device rejected")
			continue
		}

		s.syncDevice(ctx, dev)
	}
}

// syncDevice runs one sync pass against a validated device. At most one
// pass runs per device; a trigger arriving while a pass is in flight is
// ignored, not queued.
func (s *Service) syncDevice(ctx context.Context, dev *drives.ManagedDevice) {
	sem := s.passLock(dev.Identifier)
	if !sem.TryAcquire(1) {
		log.Debug().Str("device", dev.Identifier).
			Msg("sync pass already running, trigger ignored")
		return
	}
	defer sem.Release(1)

	started := s.clock.Now()
	plan, err := s.planner.BuildPlan(ctx, dev.MountPath)
	if err != nil {
		log.Error().Str("device", dev.Identifier).Err(err).
			Msg("failed to plan sync pass")
		return
	}
	if plan.CopyCount() == 0 {
		log.Debug().Str("device", dev.Identifier).
			Msg("destination already up to date")
		return
	}

	log.Info().
		Str("device", dev.Identifier).
		Int("files", plan.CopyCount()).
		Int64("bytes", plan.CopyBytes()).
		Msg("starting sync pass")

	outcome, err := s.executor.Execute(ctx, plan, dev.MountPath, dev.FreeBytes, nil)
	if err != nil {
		log.Error().Str("device", dev.Identifier).Err(err).
			Msg("sync pass aborted")
	}
	s.recordPass(ctx, dev, started, outcome, err)
}

// recordPass writes the pass outcome to the history store, when one is
// attached.
func (s *Service) recordPass(
	ctx context.Context,
	dev *drives.ManagedDevice,
	started time.Time,
	outcome *syncengine.TransferOutcome,
	passErr error,
) {
	if s.history == nil {
		return
	}

	errText := strings.Join(outcome.Errors, "\n")
	if passErr != nil {
		if errText != "" {
			errText += "\n"
		}
		errText += passErr.Error()
	}

	pass := historydb.SyncPass{
		DeviceID:    dev.Identifier,
		MountPath:   dev.MountPath,
		StartedAt:   started,
		FinishedAt:  s.clock.Now(),
		FilesCopied: outcome.FilesCopied,
		FilesFailed: outcome.FilesFailed,
		BytesCopied: outcome.BytesCopied,
		Errors:      errText,
		Success:     passErr == nil && outcome.FilesFailed == 0,
	}
	if _, err := s.history.AddSyncPass(ctx, pass); err != nil {
		log.Error().Err(err).Msg("failed to record sync pass")
	}
}

func (s *Service) passLock(deviceID string) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()
	sem, ok := s.passLocks[deviceID]
	if !ok {
		sem = semaphore.NewWeighted(1)
		s.passLocks[deviceID] = sem
	}
	return sem
}

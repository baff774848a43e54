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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/SkyCartProject/skycart-core/pkg/config"
	"github.com/SkyCartProject/skycart-core/pkg/database/historydb"
	"github.com/SkyCartProject/skycart-core/pkg/helpers"
	"github.com/SkyCartProject/skycart-core/pkg/ledger"
	"github.com/SkyCartProject/skycart-core/pkg/mount"
	"github.com/SkyCartProject/skycart-core/pkg/service"
	"github.com/adrg/xdg"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	showVersion := flag.Bool(
		"version",
		false,
		"print version and exit",
	)
	daemonMode := flag.Bool(
		"daemon",
		false,
		"log to stderr in addition to the log file",
	)
	debugLogging := flag.Bool(
		"debug",
		false,
		"enable debug logging",
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s v%s\n", config.AppName, config.AppVersion)
		return nil
	}

	configDir := filepath.Join(xdg.ConfigHome, config.AppName)
	dataDir := filepath.Join(xdg.DataHome, config.AppName)

	var logWriters []io.Writer
	if *daemonMode {
		logWriters = []io.Writer{os.Stderr}
	}
	if err := helpers.InitLogging(dataDir, logWriters); err != nil {
		return fmt.Errorf("error initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(configDir, config.BaseDefaults)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	helpers.SetLogLevel(*debugLogging || cfg.DebugLogging())

	defer func() {
		if r := recover(); r != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", r)
			log.Fatal().Msgf("panic: %v", r)
		}
	}()

	history, err := historydb.OpenHistoryDB(dataDir)
	if err != nil {
		return fmt.Errorf("error opening history database: %w", err)
	}
	defer func() {
		if closeErr := history.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close history database")
		}
	}()

	ledgerPath := cfg.Updates().LedgerPath
	if ledgerPath == "" {
		ledgerPath = filepath.Join(dataDir, config.LedgerFile)
	}
	ldg := ledger.NewLedger(nil, ledgerPath, nil)

	deps := service.Deps{
		History:  history,
		Ledger:   ldg,
		WatchDir: volumesDir(),
	}

	if mountCfg := cfg.Mount(); mountCfg.ImagePath != "" {
		deps.Supervisor = mount.NewSupervisor(
			mount.NewMounter(&helpers.RealCommandExecutor{}),
			mount.Config{
				ImagePath:           mountCfg.ImagePath,
				MountPoint:          mountCfg.MountPoint,
				CheckInterval:       cfg.MountCheckInterval(),
				RemountRetryDelay:   cfg.RemountRetryDelay(),
				MountTimeout:        cfg.MountTimeout(),
				HealthFailThreshold: mountCfg.HealthFailThreshold,
				MaxRecoveryFailures: mountCfg.MaxRecoveryFailures,
			},
			mount.Callbacks{
				OnDriveLost: func() {
					log.Error().Msg("exchange drive lost, recovery in progress")
				},
			},
			nil,
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Msgf("%s v%s starting", config.AppName, config.AppVersion)
	if err := service.New(cfg, deps).Start(ctx); err != nil {
		return fmt.Errorf("service error: %w", err)
	}
	return nil
}

// volumesDir is where the host auto-mounts removable media, used for
// attach notifications. Empty disables the watcher and detection falls
// back to polling alone.
func volumesDir() string {
	switch runtime.GOOS {
	case "darwin":
		return "/Volumes"
	case "linux":
		if dir := filepath.Join("/media", os.Getenv("USER")); dirExists(dir) {
			return dir
		}
		if dirExists("/media") {
			return "/media"
		}
		return ""
	default:
		return ""
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

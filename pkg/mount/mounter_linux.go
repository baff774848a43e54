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

//go:build linux

package mount

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/SkyCartProject/skycart-core/pkg/drives"
	"github.com/SkyCartProject/skycart-core/pkg/helpers"
	"github.com/rs/zerolog/log"
)

// linuxMounter loop-mounts a disk image with the system mount tool.
type linuxMounter struct {
	cmd      helpers.CommandExecutor
	detector drives.Detector
}

// NewMounter creates the platform mount primitive. A nil executor uses
// real system commands.
func NewMounter(cmd helpers.CommandExecutor) Mounter {
	if cmd == nil {
		cmd = &helpers.RealCommandExecutor{}
	}
	return &linuxMounter{
		cmd:      cmd,
		detector: drives.NewSystemDetector(),
	}
}

func (m *linuxMounter) Mount(ctx context.Context, imagePath, target string) (MountResult, error) {
	if _, err := os.Stat(imagePath); err != nil {
		return MountResult{Status: StatusImageNotFound},
			fmt.Errorf("image not found: %s: %w", imagePath, err)
	}
	if err := os.MkdirAll(target, 0o750); err != nil {
		return MountResult{Status: StatusUnknown},
			fmt.Errorf("failed to create mount point: %w", err)
	}

	out, err := m.cmd.Output(ctx, "mount", "-o", "loop", imagePath, target)
	if err != nil {
		status := classifyLinuxMount(string(out), err)
		if status == StatusAlreadyMounted {
			log.Debug().Str("target", target).Msg("image already mounted")
			return MountResult{Status: StatusAlreadyMounted, AssignedPath: target}, nil
		}
		return MountResult{Status: status},
			fmt.Errorf("mount failed: %s: %w", strings.TrimSpace(string(out)), err)
	}

	return MountResult{Status: StatusMounted, AssignedPath: target}, nil
}

func (m *linuxMounter) Unmount(ctx context.Context, target string, force bool) error {
	args := []string{target}
	if force {
		args = []string{"-f", target}
	}
	out, err := m.cmd.Output(ctx, "umount", args...)
	if err != nil {
		return fmt.Errorf("umount failed: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

func (m *linuxMounter) List(ctx context.Context) ([]drives.Volume, error) {
	return m.detector.Scan(ctx)
}

func classifyLinuxMount(output string, err error) MountStatus {
	lower := strings.ToLower(output)
	switch {
	case strings.Contains(lower, "already mounted"):
		return StatusAlreadyMounted
	case strings.Contains(lower, "permission denied"),
		strings.Contains(lower, "only root"):
		return StatusPermissionDenied
	case strings.Contains(lower, "is busy"):
		return StatusTargetBusy
	case errors.Is(err, exec.ErrNotFound):
		return StatusToolNotFound
	default:
		return StatusUnknown
	}
}

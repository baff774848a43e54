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

//go:build windows

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
)

// mountImgTool is the ImDisk front-end used to attach VHD images to drive
// letters. It must be on PATH or installed alongside the service.
const mountImgTool = "MountImg.exe"

// windowsMounter attaches a VHD to a drive letter via ImDisk.
type windowsMounter struct {
	cmd      helpers.CommandExecutor
	detector drives.Detector
}

// NewMounter creates the platform mount primitive. A nil executor uses
// real system commands.
func NewMounter(cmd helpers.CommandExecutor) Mounter {
	if cmd == nil {
		cmd = &helpers.RealCommandExecutor{}
	}
	return &windowsMounter{
		cmd:      cmd,
		detector: drives.NewSystemDetector(),
	}
}

func (m *windowsMounter) Mount(ctx context.Context, imagePath, target string) (MountResult, error) {
	if _, err := os.Stat(imagePath); err != nil {
		return MountResult{Status: StatusImageNotFound},
			fmt.Errorf("image not found: %s: %w", imagePath, err)
	}

	out, err := m.cmd.Output(ctx, mountImgTool, "-a", "-f", imagePath, "-m", target)
	if err != nil {
		status := classifyWindowsMount(string(out), err)
		if status == StatusAlreadyMounted {
			return MountResult{Status: StatusAlreadyMounted, AssignedPath: target}, nil
		}
		return MountResult{Status: status},
			fmt.Errorf("%s failed: %s: %w", mountImgTool, strings.TrimSpace(string(out)), err)
	}

	return MountResult{Status: StatusMounted, AssignedPath: target}, nil
}

func (m *windowsMounter) Unmount(ctx context.Context, target string, force bool) error {
	args := []string{"-d", "-m", target}
	if force {
		args = append(args, "-f")
	}
	out, err := m.cmd.Output(ctx, mountImgTool, args...)
	if err != nil {
		return fmt.Errorf("%s detach failed: %s: %w",
			mountImgTool, strings.TrimSpace(string(out)), err)
	}
	return nil
}

func (m *windowsMounter) List(ctx context.Context) ([]drives.Volume, error) {
	return m.detector.Scan(ctx)
}

func classifyWindowsMount(output string, err error) MountStatus {
	lower := strings.ToLower(output)
	switch {
	case strings.Contains(lower, "already"):
		return StatusAlreadyMounted
	case strings.Contains(lower, "access is denied"),
		strings.Contains(lower, "administrator"):
		return StatusPermissionDenied
	case strings.Contains(lower, "in use"):
		return StatusTargetBusy
	case errors.Is(err, exec.ErrNotFound):
		return StatusToolNotFound
	default:
		return StatusUnknown
	}
}

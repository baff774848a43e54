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

package drives

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// ErrDeviceVanished is returned when a device disappears mid-validation.
// This is device-state information, not a retryable failure.
var ErrDeviceVanished = errors.New("device vanished during validation")

// ValidatorConfig bounds what the validator accepts.
type ValidatorConfig struct {
	Filesystems      []string
	MinCapacityBytes uint64
	MaxCapacityBytes uint64
}

// Validator checks that an identified device is safe to use as an exchange
// medium.
type Validator struct {
	fs  afero.Fs
	cfg ValidatorConfig
}

// NewValidator creates a Validator. A nil fs defaults to the OS filesystem.
func NewValidator(fs afero.Fs, cfg ValidatorConfig) *Validator {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Validator{fs: fs, cfg: cfg}
}

// Validate checks capacity, filesystem type and writability. Expected
// failure conditions are returned as reasons with ok=false, never as an
// error; the error return is reserved for the device disappearing
// mid-check, which is reported rather than retried.
func (v *Validator) Validate(ctx context.Context, dev *ManagedDevice) (bool, []string, error) {
	var reasons []string

	if err := ctx.Err(); err != nil {
		return false, nil, fmt.Errorf("validation canceled: %w", err)
	}

	if dev.CapacityBytes < v.cfg.MinCapacityBytes {
		reasons = append(reasons, fmt.Sprintf(
			"capacity %d below minimum %d", dev.CapacityBytes, v.cfg.MinCapacityBytes))
	}
	if v.cfg.MaxCapacityBytes > 0 && dev.CapacityBytes > v.cfg.MaxCapacityBytes {
		reasons = append(reasons, fmt.Sprintf(
			"capacity %d above maximum %d", dev.CapacityBytes, v.cfg.MaxCapacityBytes))
	}

	if !v.filesystemAllowed(dev.FilesystemType) {
		reasons = append(reasons, fmt.Sprintf(
			"filesystem %q not in allow-list", dev.FilesystemType))
	}

	writable, err := v.probeWrite(dev.MountPath)
	if err != nil {
		return false, reasons, err
	}
	if !writable {
		reasons = append(reasons, "probe file could not be written")
	}

	return len(reasons) == 0, reasons, nil
}

func (v *Validator) filesystemAllowed(fstype string) bool {
	for _, allowed := range v.cfg.Filesystems {
		if strings.EqualFold(allowed, fstype) {
			return true
		}
	}
	return false
}

// probeWrite writes and deletes a uuid-named dotfile at the mount root.
// A missing mount directory means the device vanished under us.
func (v *Validator) probeWrite(mountPath string) (bool, error) {
	if exists, err := afero.DirExists(v.fs, mountPath); err != nil || !exists {
		return false, fmt.Errorf("%w: %s", ErrDeviceVanished, mountPath)
	}

	probePath := filepath.Join(mountPath, ".skycart-probe-"+uuid.NewString())
	if err := afero.WriteFile(v.fs, probePath, []byte("probe"), 0o644); err != nil {
		if os.IsNotExist(err) {
			return false, fmt.Errorf("%w: %s", ErrDeviceVanished, mountPath)
		}
		// Permission or read-only errors are expected failure conditions.
		return false, nil
	}
	if err := v.fs.Remove(probePath); err != nil {
		return false, nil
	}
	return true, nil
}

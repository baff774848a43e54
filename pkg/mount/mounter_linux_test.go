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
	"os"
	"path/filepath"
	"testing"

	"github.com/SkyCartProject/skycart-core/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T) string {
	t.Helper()
	imagePath := filepath.Join(t.TempDir(), "exchange.vhd")
	require.NoError(t, os.WriteFile(imagePath, []byte("vhd"), 0o644))
	return imagePath
}

func TestLinuxMountSuccess(t *testing.T) {
	t.Parallel()

	imagePath := writeImage(t)
	target := filepath.Join(t.TempDir(), "cart")

	cmd := &mocks.MockCommandExecutor{}
	cmd.On("Output", mock.Anything, "mount",
		[]string{"-o", "loop", imagePath, target}).
		Return([]byte(""), nil)

	m := NewMounter(cmd)
	result, err := m.Mount(context.Background(), imagePath, target)
	require.NoError(t, err)
	assert.Equal(t, StatusMounted, result.Status)
	assert.Equal(t, target, result.AssignedPath)
	cmd.AssertExpectations(t)
}

func TestLinuxMountMissingImage(t *testing.T) {
	t.Parallel()

	cmd := &mocks.MockCommandExecutor{}
	m := NewMounter(cmd)

	result, err := m.Mount(context.Background(),
		filepath.Join(t.TempDir(), "nope.vhd"), filepath.Join(t.TempDir(), "cart"))
	require.Error(t, err)
	assert.Equal(t, StatusImageNotFound, result.Status)
	cmd.AssertNotCalled(t, "Output", mock.Anything, mock.Anything, mock.Anything)
}

func TestLinuxMountAlreadyMounted(t *testing.T) {
	t.Parallel()

	imagePath := writeImage(t)
	target := filepath.Join(t.TempDir(), "cart")

	cmd := &mocks.MockCommandExecutor{}
	cmd.On("Output", mock.Anything, "mount", mock.Anything).
		Return([]byte("mount: /cart: /images/exchange.vhd already mounted on /cart."),
			errors.New("exit status 32"))

	m := NewMounter(cmd)
	result, err := m.Mount(context.Background(), imagePath, target)
	require.NoError(t, err, "already mounted is success, not failure")
	assert.Equal(t, StatusAlreadyMounted, result.Status)
}

func TestLinuxMountClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		output string
		want   MountStatus
	}{
		{"permission", "mount: only root can use \"--options\" option", StatusPermissionDenied},
		{"denied", "mount: permission denied", StatusPermissionDenied},
		{"busy", "mount: /cart: target is busy", StatusTargetBusy},
		{"unknown", "mount: something odd", StatusUnknown},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			imagePath := writeImage(t)
			target := filepath.Join(t.TempDir(), "cart")

			cmd := &mocks.MockCommandExecutor{}
			cmd.On("Output", mock.Anything, "mount", mock.Anything).
				Return([]byte(tt.output), errors.New("exit status 1"))

			result, err := NewMounter(cmd).Mount(context.Background(), imagePath, target)
			require.Error(t, err)
			assert.Equal(t, tt.want, result.Status)
		})
	}
}

func TestLinuxUnmount(t *testing.T) {
	t.Parallel()

	cmd := &mocks.MockCommandExecutor{}
	cmd.On("Output", mock.Anything, "umount", []string{"/mnt/cart"}).
		Return([]byte(""), nil)
	cmd.On("Output", mock.Anything, "umount", []string{"-f", "/mnt/cart2"}).
		Return([]byte(""), nil)

	m := NewMounter(cmd)
	require.NoError(t, m.Unmount(context.Background(), "/mnt/cart", false))
	require.NoError(t, m.Unmount(context.Background(), "/mnt/cart2", true))
	cmd.AssertExpectations(t)
}

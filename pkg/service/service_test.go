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

package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/SkyCartProject/skycart-core/pkg/config"
	"github.com/SkyCartProject/skycart-core/pkg/drives"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeDetector returns a scripted volume list.
type fakeDetector struct {
	mu      sync.Mutex
	volumes []drives.Volume
}

func (f *fakeDetector) Scan(_ context.Context) ([]drives.Volume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]drives.Volume(nil), f.volumes...), nil
}

func newTestConfig(t *testing.T, sourceRoots []string) *config.Instance {
	t.Helper()
	cfg, err := config.NewConfig(t.TempDir(), config.BaseDefaults)
	require.NoError(t, err)
	cfg.SetSourceRoots(sourceRoots)
	return cfg
}

// deviceDir creates a mount-point directory that identifies as a managed
// device by content.
func deviceDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "DEMO-20260314-092653.LOG"), []byte("log"), 0o644))
	return dir
}

func managedVolume(dir string) drives.Volume {
	return drives.Volume{
		MountPath:      dir,
		DevicePath:     "/dev/sdz1",
		FilesystemType: "FAT32",
		CapacityBytes:  4 << 30,
	}
}

func TestStartScanSyncsIdentifiedDevice(t *testing.T) {
	defer goleak.VerifyNone(t)

	srcRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(srcRoot, "charts"), 0o750))
	require.NoError(t, os.WriteFile(
		filepath.Join(srcRoot, "charts", "apt.db"), []byte("chart data"), 0o644))

	devDir := deviceDir(t)
	cfg := newTestConfig(t, []string{srcRoot})

	svc := New(cfg, Deps{
		Detector: &fakeDetector{volumes: []drives.Volume{managedVolume(devDir)}},
		Clock:    clockwork.NewFakeClock(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	startErr := make(chan error, 1)
	go func() {
		startErr <- svc.Start(ctx)
	}()

	svc.RequestScan()

	copied := filepath.Join(devDir, "charts", "apt.db")
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(copied)
		return err == nil && string(data) == "chart data"
	}, 5*time.Second, 10*time.Millisecond, "source file synced to device")

	cancel()
	select {
	case err := <-startErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestScanSkipsUnidentifiedVolume(t *testing.T) {
	t.Parallel()

	srcRoot := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(srcRoot, "apt.db"), []byte("chart data"), 0o644))

	// A volume with no recognizable content must never be written to.
	plainDir := t.TempDir()
	cfg := newTestConfig(t, []string{srcRoot})

	svc := New(cfg, Deps{
		Detector: &fakeDetector{volumes: []drives.Volume{managedVolume(plainDir)}},
		Clock:    clockwork.NewFakeClock(),
	})

	svc.scanOnce(context.Background())

	_, err := os.Stat(filepath.Join(plainDir, "apt.db"))
	assert.True(t, os.IsNotExist(err), "unidentified volume left untouched")
}

func TestScanSkipsInvalidDevice(t *testing.T) {
	t.Parallel()

	srcRoot := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(srcRoot, "apt.db"), []byte("chart data"), 0o644))

	devDir := deviceDir(t)
	cfg := newTestConfig(t, []string{srcRoot})

	vol := managedVolume(devDir)
	vol.FilesystemType = "NTFS" // not in the allow-list

	svc := New(cfg, Deps{
		Detector: &fakeDetector{volumes: []drives.Volume{vol}},
		Clock:    clockwork.NewFakeClock(),
	})

	svc.scanOnce(context.Background())

	_, err := os.Stat(filepath.Join(devDir, "apt.db"))
	assert.True(t, os.IsNotExist(err), "rejected device left untouched")
}

func TestSecondTriggerIgnoredWhilePassRunning(t *testing.T) {
	t.Parallel()

	srcRoot := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(srcRoot, "apt.db"), []byte("chart data"), 0o644))

	devDir := deviceDir(t)
	cfg := newTestConfig(t, []string{srcRoot})

	svc := New(cfg, Deps{
		Detector: &fakeDetector{},
		Clock:    clockwork.NewFakeClock(),
	})

	dev := &drives.ManagedDevice{
		Volume:     managedVolume(devDir),
		Identifier: "a1b2c3d4",
	}

	// Simulate an in-flight pass for this device.
	require.True(t, svc.passLock(dev.Identifier).TryAcquire(1))
	defer svc.passLock(dev.Identifier).Release(1)

	svc.syncDevice(context.Background(), dev)

	_, err := os.Stat(filepath.Join(devDir, "apt.db"))
	assert.True(t, os.IsNotExist(err), "overlapping trigger ignored, not queued")
}

func TestSyncPassIsIdempotent(t *testing.T) {
	t.Parallel()

	srcRoot := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(srcRoot, "apt.db"), []byte("chart data"), 0o644))

	devDir := deviceDir(t)
	cfg := newTestConfig(t, []string{srcRoot})

	svc := New(cfg, Deps{
		Detector: &fakeDetector{volumes: []drives.Volume{managedVolume(devDir)}},
		Clock:    clockwork.NewFakeClock(),
	})

	ctx := context.Background()
	svc.scanOnce(ctx)

	copied := filepath.Join(devDir, "apt.db")
	first, err := os.Stat(copied)
	require.NoError(t, err)

	// A second pass over an up-to-date device must not rewrite anything.
	svc.scanOnce(ctx)
	second, err := os.Stat(copied)
	require.NoError(t, err)
	assert.Equal(t, first.ModTime(), second.ModTime())
}

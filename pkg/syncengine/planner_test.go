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

package syncengine

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestBuildPlanAbsentFiles(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "DEMO-20260812-142233.LOG"), "log data")
	writeFile(t, filepath.Join(src, "SNAP", "screen.png"), "png data")

	plan, err := NewPlanner([]string{src}, nil).BuildPlan(context.Background(), dest)
	require.NoError(t, err)

	require.Len(t, plan.Entries, 2)
	assert.Equal(t, 2, plan.CopyCount())
	for _, entry := range plan.Entries {
		assert.Equal(t, ActionCopy, entry.Action)
		assert.Equal(t, ReasonAbsent, entry.Reason)
	}
}

func TestBuildPlanSkipsIdentical(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "a.LOG"), "identical")
	writeFile(t, filepath.Join(dest, "a.LOG"), "identical")

	plan, err := NewPlanner([]string{src}, nil).BuildPlan(context.Background(), dest)
	require.NoError(t, err)

	require.Len(t, plan.Entries, 1)
	assert.Equal(t, ActionSkip, plan.Entries[0].Action)
	assert.Equal(t, 0, plan.CopyCount())
}

func TestBuildPlanSizeDifference(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "a.LOG"), "new longer content")
	writeFile(t, filepath.Join(dest, "a.LOG"), "short")

	plan, err := NewPlanner([]string{src}, nil).BuildPlan(context.Background(), dest)
	require.NoError(t, err)

	require.Len(t, plan.Entries, 1)
	assert.Equal(t, ActionCopy, plan.Entries[0].Action)
	assert.Equal(t, ReasonSize, plan.Entries[0].Reason)
}

func TestBuildPlanChecksumDifference(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dest := t.TempDir()
	// Same size, different content: only this case pays for hashing.
	writeFile(t, filepath.Join(src, "a.LOG"), "content A")
	writeFile(t, filepath.Join(dest, "a.LOG"), "content B")

	plan, err := NewPlanner([]string{src}, nil).BuildPlan(context.Background(), dest)
	require.NoError(t, err)

	require.Len(t, plan.Entries, 1)
	assert.Equal(t, ActionCopy, plan.Entries[0].Action)
	assert.Equal(t, ReasonChecksum, plan.Entries[0].Reason)
	assert.NotEmpty(t, plan.Entries[0].Source.Checksum,
		"source hash carried into the plan for transfer verification")
}

func TestBuildPlanDeterministicOrder(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "b.LOG"), "b")
	writeFile(t, filepath.Join(src, "a.LOG"), "a")
	writeFile(t, filepath.Join(src, "sub", "c.LOG"), "c")

	planner := NewPlanner([]string{src}, nil)

	first, err := planner.BuildPlan(context.Background(), dest)
	require.NoError(t, err)
	second, err := planner.BuildPlan(context.Background(), dest)
	require.NoError(t, err)

	require.Len(t, first.Entries, 3)
	assert.Equal(t, "a.LOG", first.Entries[0].DestPath)
	assert.Equal(t, "b.LOG", first.Entries[1].DestPath)
	assert.Equal(t, filepath.Join("sub", "c.LOG"), first.Entries[2].DestPath)
	assert.Equal(t, first.Entries, second.Entries, "plans are reproducible")
}

func TestBuildPlanSkipsSymlinks(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	src := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "real.LOG"), "data")
	require.NoError(t, os.Symlink(
		filepath.Join(src, "real.LOG"), filepath.Join(src, "link.LOG")))

	plan, err := NewPlanner([]string{src}, nil).BuildPlan(context.Background(), dest)
	require.NoError(t, err)

	require.Len(t, plan.Entries, 1)
	assert.Equal(t, "real.LOG", plan.Entries[0].DestPath)
}

func TestBuildPlanEmptyDirsNoError(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dest := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "empty", "nested"), 0o755))

	plan, err := NewPlanner([]string{src}, nil).BuildPlan(context.Background(), dest)
	require.NoError(t, err)
	assert.Empty(t, plan.Entries)
}

func TestBuildPlanMissingSourceRoot(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	planner := NewPlanner([]string{filepath.Join(t.TempDir(), "nope")}, nil)

	plan, err := planner.BuildPlan(context.Background(), dest)
	require.NoError(t, err, "missing roots are skipped, not fatal")
	assert.Empty(t, plan.Entries)
}

func TestEachEntryStops(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "a.LOG"), "a")
	writeFile(t, filepath.Join(src, "b.LOG"), "b")

	seen := 0
	err := NewPlanner([]string{src}, nil).EachEntry(context.Background(), dest,
		func(PlanEntry) error {
			seen++
			return os.ErrClosed
		})
	require.Error(t, err)
	assert.Equal(t, 1, seen, "enumeration stops on callback error")
}

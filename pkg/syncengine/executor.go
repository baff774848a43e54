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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/SkyCartProject/skycart-core/pkg/checksum"
	"github.com/SkyCartProject/skycart-core/pkg/retry"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/opencontainers/go-digest"
	"github.com/rs/zerolog/log"
)

// ErrInsufficientSpace aborts a pass before any copy when the destination
// cannot hold the planned bytes plus the configured reserve.
var ErrInsufficientSpace = errors.New("insufficient space on destination")

// lowSpaceWarnBytes triggers a warning when destination free space after
// the pass would drop below it.
const lowSpaceWarnBytes = 100 * 1024 * 1024

// ProgressFunc receives advisory progress after each processed entry. It
// must be cheap; slow consumers cause updates to be dropped, never a
// stalled copy loop.
type ProgressFunc func(Progress)

// Executor performs planned copies with checksummed verification and
// bounded retry.
type Executor struct {
	verifier     *checksum.Verifier
	clock        clockwork.Clock
	policy       retry.Policy
	reserveBytes uint64
}

// NewExecutor creates an Executor. A nil clock uses the real clock; a nil
// verifier gets a default one over the OS filesystem.
func NewExecutor(verifier *checksum.Verifier, clock clockwork.Clock, policy retry.Policy, reserveBytes uint64) *Executor {
	if verifier == nil {
		verifier = checksum.NewVerifier(nil)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Executor{
		verifier:     verifier,
		clock:        clock,
		policy:       policy,
		reserveBytes: reserveBytes,
	}
}

// Execute runs the plan entry by entry. A failed entry is recorded and
// processing continues; one bad file never aborts the pass. destFreeBytes
// of zero skips the space precheck (callers without a usage snapshot).
func (e *Executor) Execute(
	ctx context.Context,
	plan *SyncPlan,
	destRoot string,
	destFreeBytes uint64,
	progress ProgressFunc,
) (*TransferOutcome, error) {
	outcome := &TransferOutcome{}

	needed := uint64(plan.CopyBytes()) + e.reserveBytes
	if destFreeBytes > 0 && needed > destFreeBytes {
		return outcome, fmt.Errorf("%w: need %d bytes, %d free",
			ErrInsufficientSpace, needed, destFreeBytes)
	}
	if destFreeBytes > 0 && destFreeBytes-uint64(plan.CopyBytes()) < lowSpaceWarnBytes {
		log.Warn().
			Uint64("free", destFreeBytes).
			Int64("planned", plan.CopyBytes()).
			Msg("destination will be low on space after this pass")
	}

	report, closeProgress := startProgressPump(progress)
	defer closeProgress()

	total := plan.CopyCount()
	for _, entry := range plan.Entries {
		if ctx.Err() != nil {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf(
				"%s: pass canceled", entry.DestPath))
			break
		}

		if entry.Action == ActionSkip {
			outcome.FilesVerified++
			continue
		}

		destPath := filepath.Join(destRoot, entry.DestPath)
		copied, err := retry.Do(ctx, e.clock, e.policy,
			func(ctx context.Context) (int64, error) {
				return e.copyVerified(ctx, entry, destPath)
			})
		if err != nil {
			log.Error().
				Str("file", entry.DestPath).
				Err(err).
				Msg("entry failed after retries")
			outcome.FilesFailed++
			outcome.Errors = append(outcome.Errors,
				fmt.Sprintf("%s: %v", entry.DestPath, err))
			continue
		}

		outcome.FilesCopied++
		outcome.FilesVerified++
		outcome.BytesCopied += copied

		report(Progress{
			FilesCopied: outcome.FilesCopied,
			FilesTotal:  total,
			BytesCopied: outcome.BytesCopied,
			CurrentFile: entry.DestPath,
		})
	}

	log.Info().
		Int("copied", outcome.FilesCopied).
		Int("failed", outcome.FilesFailed).
		Int64("bytes", outcome.BytesCopied).
		Msg("sync pass complete")
	return outcome, nil
}

// copyVerified copies one file through a temporary path beside the
// destination, verifies the temp checksum against the source, atomically
// renames it into place, and verifies the final file once more. On any
// failure the temp file is removed so the destination tree never holds a
// partially-written file.
func (e *Executor) copyVerified(ctx context.Context, entry PlanEntry, destPath string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("copy canceled: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
		return 0, fmt.Errorf("failed to create destination directory: %w", err)
	}

	tmpPath := filepath.Join(filepath.Dir(destPath),
		".skycart-partial-"+uuid.NewString())

	copied, srcSum, err := e.copyToTemp(entry.SourcePath, tmpPath)
	if err != nil {
		_ = os.Remove(tmpPath)
		return 0, err
	}

	// The source checksum from planning, when present, guards against the
	// source changing between plan and transfer.
	if want := entry.Source.Checksum; want != "" && want != srcSum {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("%w: source %s changed since planning",
			checksum.ErrMismatch, entry.SourcePath)
	}

	if err := e.verifier.VerifyFile(tmpPath, srcSum); err != nil {
		_ = os.Remove(tmpPath)
		return 0, err
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to move file into place: %w", err)
	}

	if err := e.verifier.VerifyFile(destPath, srcSum); err != nil {
		return 0, err
	}

	return copied, nil
}

// copyToTemp streams the source into tmpPath, digesting the source bytes
// as they pass through.
func (*Executor) copyToTemp(srcPath, tmpPath string) (int64, digest.Digest, error) {
	src, err := os.Open(srcPath) //nolint:gosec // paths come from the sync plan
	if err != nil {
		return 0, "", fmt.Errorf("failed to open source %s: %w", srcPath, err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(src)

	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec // temp beside destination
	if err != nil {
		return 0, "", fmt.Errorf("failed to create temp file: %w", err)
	}

	digester := digest.SHA256.Digester()
	copied, err := io.Copy(tmp, io.TeeReader(src, digester.Hash()))
	if err != nil {
		_ = tmp.Close()
		return 0, "", fmt.Errorf("failed to copy %s: %w", srcPath, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return 0, "", fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, "", fmt.Errorf("failed to close temp file: %w", err)
	}

	return copied, digester.Digest(), nil
}

// startProgressPump decouples progress reporting from the copy loop: a
// buffered channel is drained by one goroutine, and updates are dropped
// when the consumer lags.
func startProgressPump(fn ProgressFunc) (report func(Progress), closePump func()) {
	if fn == nil {
		return func(Progress) {}, func() {}
	}

	ch := make(chan Progress, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range ch {
			fn(p)
		}
	}()

	report = func(p Progress) {
		select {
		case ch <- p:
		default:
			// consumer is behind; progress is advisory
		}
	}
	closePump = func() {
		close(ch)
		<-done
	}
	return report, closePump
}

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

// Package checksum computes and compares content digests. Digest strings
// (sha256, OCI canonical form) are the checksum representation used for
// transfer verification and the version ledger.
package checksum

import (
	"errors"
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/afero"
)

// ErrMismatch is returned when a file's content does not match the
// expected digest.
var ErrMismatch = errors.New("checksum mismatch")

// Verifier computes sha256 digests over files on an injected filesystem.
// The zero value is not usable; construct with NewVerifier.
type Verifier struct {
	fs afero.Fs
}

// NewVerifier creates a Verifier. A nil fs defaults to the OS filesystem.
func NewVerifier(fs afero.Fs) *Verifier {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Verifier{fs: fs}
}

// SumReader digests r until EOF.
func (*Verifier) SumReader(r io.Reader) (digest.Digest, error) {
	dgst, err := digest.SHA256.FromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to digest reader: %w", err)
	}
	return dgst, nil
}

// SumFile digests the content of the file at path.
func (v *Verifier) SumFile(path string) (digest.Digest, error) {
	f, err := v.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func(f afero.File) {
		_ = f.Close()
	}(f)
	return v.SumReader(f)
}

// VerifyFile returns ErrMismatch if the file at path does not hash to want.
func (v *Verifier) VerifyFile(path string, want digest.Digest) error {
	got, err := v.SumFile(path)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: %s: got %s, want %s", ErrMismatch, path, got, want)
	}
	return nil
}

// FilesMatch reports whether two files have identical content.
func (v *Verifier) FilesMatch(pathA, pathB string) (bool, error) {
	sumA, err := v.SumFile(pathA)
	if err != nil {
		return false, err
	}
	sumB, err := v.SumFile(pathB)
	if err != nil {
		return false, err
	}
	return sumA == sumB, nil
}

// ShortID derives a short stable identifier from arbitrary input, used for
// device identifiers. Returns the first 8 hex characters of the sha256.
func ShortID(input string) string {
	return digest.SHA256.FromString(input).Encoded()[:8]
}

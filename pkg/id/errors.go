// SPDX-License-Identifier: BSD-3-Clause

package id

import "errors"

var (
	// ErrFileRead indicates the persistent id file could not be read.
	ErrFileRead = errors.New("failed to read persistent id file")
	// ErrFileCreation indicates the persistent id file could not be created.
	ErrFileCreation = errors.New("failed to create persistent id file")
	// ErrFileUpdate indicates the persistent id file could not be updated.
	ErrFileUpdate = errors.New("failed to update persistent id file")
	// ErrDirectoryCreation indicates the id file's parent directory could not be created.
	ErrDirectoryCreation = errors.New("failed to create id directory")
	// ErrInvalidUUID indicates the stored id file did not contain a valid UUID.
	ErrInvalidUUID = errors.New("stored id is not a valid UUID")
)

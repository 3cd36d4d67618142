// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"fmt"
	"os"
	"strings"
)

// FromEnv reads a secret from the named environment variable into a
// protected buffer and removes the variable from the process
// environment so that child processes and later diagnostics cannot see
// it. Leading/trailing whitespace is trimmed before storing.
//
// Returns an error if the variable is unset or empty after trimming.
// The caller must close the returned buffer.
func FromEnv(name string) (*Buffer, error) {
	value, exists := os.LookupEnv(name)
	if !exists {
		return nil, fmt.Errorf("environment variable %s is not set", name)
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("environment variable %s is empty", name)
	}

	buffer, err := NewFromString(trimmed)
	if err != nil {
		return nil, err
	}

	// The heap copy held by the environment cannot be zeroed in place,
	// but unsetting the variable keeps it out of /proc/self/environ
	// snapshots and child process environments.
	if err := os.Unsetenv(name); err != nil {
		buffer.Close()
		return nil, fmt.Errorf("unsetting %s: %w", name, err)
	}

	return buffer, nil
}

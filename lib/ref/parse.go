// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// MatrixUserID constructs a Matrix user ID (@localpart:server) from its
// parts. Use this when the localpart and server are already known-valid
// (e.g., building a user ID from a configured server name).
func MatrixUserID(localpart, server string) UserID {
	return UserID{id: "@" + localpart + ":" + server}
}

// ServerFromUserID extracts the Matrix server name from a user ID
// (@localpart:server).
func ServerFromUserID(userID string) (string, error) {
	_, server, err := parsePrefixedID(userID, '@', "Matrix user ID")
	if err != nil {
		return "", err
	}
	return server, nil
}

// parsePrefixedID extracts localpart and server from a Matrix identifier
// with the given sigil prefix (@ for user IDs, # for room aliases).
func parsePrefixedID(identifier string, sigil byte, kind string) (localpart, server string, err error) {
	if len(identifier) < 2 || identifier[0] != sigil {
		return "", "", fmt.Errorf("invalid %s %q: must start with %c", kind, identifier, sigil)
	}
	colonIndex := strings.Index(identifier[1:], ":")
	if colonIndex < 0 {
		return "", "", fmt.Errorf("invalid %s %q: missing :server", kind, identifier)
	}
	colonIndex++ // adjust for [1:] offset
	if colonIndex < 2 {
		return "", "", fmt.Errorf("invalid %s %q: empty localpart", kind, identifier)
	}
	localpart = identifier[1:colonIndex]
	server = identifier[colonIndex+1:]
	if server == "" {
		return "", "", fmt.Errorf("invalid %s %q: empty server", kind, identifier)
	}
	return localpart, server, nil
}

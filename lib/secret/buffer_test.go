// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"os"
	"testing"
)

func TestNewFromBytesZerosSource(t *testing.T) {
	source := []byte("syt_token_value")
	buffer, err := NewFromBytes(source)
	if err != nil {
		t.Fatalf("NewFromBytes failed: %v", err)
	}
	defer buffer.Close()

	for index, b := range source {
		if b != 0 {
			t.Fatalf("source byte %d not zeroed", index)
		}
	}
	if buffer.String() != "syt_token_value" {
		t.Errorf("buffer contents = %q", buffer.String())
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	buffer, err := NewFromString("secret")
	if err != nil {
		t.Fatalf("NewFromString failed: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestReadAfterClosePanics(t *testing.T) {
	buffer, err := NewFromString("secret")
	if err != nil {
		t.Fatalf("NewFromString failed: %v", err)
	}
	buffer.Close()

	defer func() {
		if recover() == nil {
			t.Error("expected panic reading closed buffer")
		}
	}()
	_ = buffer.Bytes()
}

func TestFromEnv(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		os.Setenv("TILL_TEST_SECRET", "  tok-123 \n")
		buffer, err := FromEnv("TILL_TEST_SECRET")
		if err != nil {
			t.Fatalf("FromEnv failed: %v", err)
		}
		defer buffer.Close()

		if buffer.String() != "tok-123" {
			t.Errorf("buffer = %q, want trimmed token", buffer.String())
		}
		if _, exists := os.LookupEnv("TILL_TEST_SECRET"); exists {
			t.Error("variable should be unset after FromEnv")
		}
	})

	t.Run("missing", func(t *testing.T) {
		os.Unsetenv("TILL_TEST_MISSING")
		if _, err := FromEnv("TILL_TEST_MISSING"); err == nil {
			t.Error("expected error for unset variable")
		}
	})

	t.Run("empty", func(t *testing.T) {
		os.Setenv("TILL_TEST_EMPTY", "   ")
		defer os.Unsetenv("TILL_TEST_EMPTY")
		if _, err := FromEnv("TILL_TEST_EMPTY"); err == nil {
			t.Error("expected error for blank variable")
		}
	})
}

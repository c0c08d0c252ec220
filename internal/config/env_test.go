// SPDX-License-Identifier: MIT

package config

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		envSet       bool
		defaultValue bool
		want         bool
	}{
		{
			name:         "uppercase TRUE",
			envValue:     "TRUE",
			envSet:       true,
			defaultValue: false,
			want:         true,
		},
		{
			name:         "enabled spelling",
			envValue:     "enabled",
			envSet:       true,
			defaultValue: false,
			want:         true,
		},
		{
			name:         "on with whitespace",
			envValue:     "  on  ",
			envSet:       true,
			defaultValue: false,
			want:         true,
		},
		{
			name:         "disabled spelling",
			envValue:     "disabled",
			envSet:       true,
			defaultValue: true,
			want:         false,
		},
		{
			name:         "explicit empty is false",
			envValue:     "",
			envSet:       true,
			defaultValue: true,
			want:         false,
		},
		{
			name:         "unset yields default",
			envSet:       false,
			defaultValue: true,
			want:         true,
		},
		{
			name:         "injection payload rejected",
			envValue:     "true; rm -rf /",
			envSet:       true,
			defaultValue: false,
			want:         false,
		},
		{
			name:         "oversized value rejected",
			envValue:     strings.Repeat("a", 2000),
			envSet:       true,
			defaultValue: false,
			want:         false,
		},
		{
			name:         "unrecognized value yields default",
			envValue:     "maybe",
			envSet:       true,
			defaultValue: true,
			want:         true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "PAWCORE_TEST_BOOL"
			if tt.envSet {
				t.Setenv(key, tt.envValue)
			}
			got := ParseBool(key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("ParseBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseBoolValue(t *testing.T) {
	logger := zerolog.Nop()
	if got := ParseBoolValue("Yes", false, logger); !got {
		t.Error("ParseBoolValue(Yes) = false, want true")
	}
	if got := ParseBoolValue("$(whoami)", true, logger); !got {
		t.Error("ParseBoolValue with blocked chars should fall back to default true")
	}
}

func TestParseStringRejectsBlockedChars(t *testing.T) {
	t.Setenv("PAWCORE_TEST_STR", "value|with|pipes")
	if got := ParseString("PAWCORE_TEST_STR", "fallback"); got != "fallback" {
		t.Errorf("ParseString() = %v, want fallback", got)
	}
}

func TestParseStringTrimsWhitespace(t *testing.T) {
	t.Setenv("PAWCORE_TEST_STR2", "  hello  ")
	if got := ParseString("PAWCORE_TEST_STR2", "fallback"); got != "hello" {
		t.Errorf("ParseString() = %q, want %q", got, "hello")
	}
}

func TestParseInt(t *testing.T) {
	t.Setenv("PAWCORE_TEST_INT", "42")
	if got := ParseInt("PAWCORE_TEST_INT", 7); got != 42 {
		t.Errorf("ParseInt() = %v, want 42", got)
	}
	t.Setenv("PAWCORE_TEST_INT", "not-a-number")
	if got := ParseInt("PAWCORE_TEST_INT", 7); got != 7 {
		t.Errorf("ParseInt() on garbage = %v, want 7", got)
	}
}

func TestParseDuration(t *testing.T) {
	t.Setenv("PAWCORE_TEST_DUR", "90s")
	if got := ParseDuration("PAWCORE_TEST_DUR", time.Minute); got != 90*time.Second {
		t.Errorf("ParseDuration() = %v, want 90s", got)
	}
	t.Setenv("PAWCORE_TEST_DUR", "soon")
	if got := ParseDuration("PAWCORE_TEST_DUR", time.Minute); got != time.Minute {
		t.Errorf("ParseDuration() on garbage = %v, want 1m", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	s := Load()
	if s.RetryMaxAttempts != 3 {
		t.Errorf("RetryMaxAttempts = %d, want 3", s.RetryMaxAttempts)
	}
	if s.ContextRetention != time.Hour {
		t.Errorf("ContextRetention = %v, want 1h", s.ContextRetention)
	}
	if s.StoreBackend != "badger" {
		t.Errorf("StoreBackend = %q, want badger", s.StoreBackend)
	}
}

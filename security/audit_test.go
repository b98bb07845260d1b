package security

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewAuditor(t *testing.T) {
	tests := []struct {
		name    string
		logger  *slog.Logger
		enabled bool
	}{
		{
			name:    "enabled with logger",
			logger:  slog.Default(),
			enabled: true,
		},
		{
			name:    "disabled with logger",
			logger:  slog.Default(),
			enabled: false,
		},
		{
			name:    "enabled with nil logger",
			logger:  nil,
			enabled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auditor := NewAuditor(tt.logger, tt.enabled)
			if auditor == nil {
				t.Fatal("NewAuditor() returned nil")
			}
			if auditor.enabled != tt.enabled {
				t.Errorf("enabled = %v, want %v", auditor.enabled, tt.enabled)
			}
			if auditor.logger == nil {
				t.Error("logger should not be nil")
			}
		})
	}
}

func TestAuditor_LogEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	tests := []struct {
		name    string
		enabled bool
		event   Event
		wantLog bool
	}{
		{
			name:    "enabled",
			enabled: true,
			event: Event{
				Type:      "test_event",
				Strategy:  "google",
				UserID:    "user-123",
				IPAddress: "192.168.1.1",
				Details:   map[string]any{"key": "value"},
			},
			wantLog: true,
		},
		{
			name:    "disabled",
			enabled: false,
			event: Event{
				Type:      "test_event",
				Strategy:  "google",
				UserID:    "user-123",
				IPAddress: "192.168.1.1",
			},
			wantLog: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			auditor := NewAuditor(logger, tt.enabled)

			auditor.LogEvent(tt.event)

			hasLog := buf.Len() > 0
			if hasLog != tt.wantLog {
				t.Errorf("LogEvent() logged = %v, want %v", hasLog, tt.wantLog)
			}
		})
	}
}

func TestAuditor_LogEvent_HashesUserID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	auditor := NewAuditor(logger, true)

	auditor.LogAuthCompleted("google", "user-123", "192.168.1.1")

	logOutput := buf.String()
	if len(logOutput) == 0 {
		t.Fatal("LogAuthCompleted() should have produced log output")
	}
	if strings.Contains(logOutput, "user-123") {
		t.Error("audit log should not contain the raw user id")
	}
	if !strings.Contains(logOutput, EventAuthCompleted) {
		t.Errorf("audit log should contain event type %q", EventAuthCompleted)
	}
}

func TestAuditor_LogAuthStarted(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	auditor := NewAuditor(logger, true)

	auditor.LogAuthStarted("google", "192.168.1.1")

	logOutput := buf.String()
	if len(logOutput) == 0 {
		t.Error("LogAuthStarted() should have produced log output")
	}
	if !strings.Contains(logOutput, EventAuthStarted) {
		t.Errorf("audit log should contain event type %q", EventAuthStarted)
	}
}

func TestAuditor_LogAuthFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	auditor := NewAuditor(logger, true)

	auditor.LogAuthFailure("google", "192.168.1.1", "invalid_grant")

	logOutput := buf.String()
	if len(logOutput) == 0 {
		t.Error("LogAuthFailure() should have produced log output")
	}
	if !strings.Contains(logOutput, "invalid_grant") {
		t.Error("audit log should contain the failure reason")
	}
}

func TestAuditor_LogRateLimitExceeded(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	auditor := NewAuditor(logger, true)

	auditor.LogRateLimitExceeded("192.168.1.1")

	logOutput := buf.String()
	if len(logOutput) == 0 {
		t.Error("LogRateLimitExceeded() should have produced log output")
	}
}

func Test_hashForLogging(t *testing.T) {
	tests := []struct {
		name      string
		sensitive string
		want      string
	}{
		{
			name:      "empty string",
			sensitive: "",
			want:      "<empty>",
		},
		{
			name:      "non-empty string",
			sensitive: "sensitive-data",
			want:      "", // We just verify it's not empty and not the original
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hashForLogging(tt.sensitive)
			if tt.sensitive == "" {
				if got != tt.want {
					t.Errorf("hashForLogging() = %q, want %q", got, tt.want)
				}
			} else {
				// Should not be empty and should not be the original
				if got == "" {
					t.Error("hashForLogging() returned empty string for non-empty input")
				}
				if got == tt.sensitive {
					t.Error("hashForLogging() returned unhashed sensitive data")
				}
				// Should be 16 characters (truncated hash)
				if len(got) != 16 {
					t.Errorf("hashForLogging() returned hash of length %d, want 16", len(got))
				}
			}
		})
	}
}

func Test_hashForLogging_Deterministic(t *testing.T) {
	input := "test-data"
	hash1 := hashForLogging(input)
	hash2 := hashForLogging(input)

	if hash1 != hash2 {
		t.Error("hashForLogging() should return same hash for same input")
	}
}

func Test_hashForLogging_Different(t *testing.T) {
	hash1 := hashForLogging("data1")
	hash2 := hashForLogging("data2")

	if hash1 == hash2 {
		t.Error("hashForLogging() should return different hashes for different inputs")
	}
}

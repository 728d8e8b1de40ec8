package shared

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

func TestSanitizeFilename(t *testing.T) {
	tc := []struct {
		name  string
		title string
		want  string
	}{
		{name: "plain title", title: "Yesterday", want: "Yesterday"},
		{name: "path separators", title: "AC/DC - Back In Black", want: "AC_DC - Back In Black"},
		{name: "reserved characters", title: `What? "Now" <live>`, want: "What_ _Now_ _live_"},
		{name: "whitespace collapses", title: "  Let   It\tBe  ", want: "Let It Be"},
		{name: "empty falls back", title: "   ", want: "track"},
		{name: "dots trimmed", title: "...", want: "track"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.title); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}

	t.Run("long titles are truncated", func(t *testing.T) {
		got := SanitizeFilename(strings.Repeat("a", 500))
		if len(got) > 200 {
			t.Errorf("expected at most 200 bytes, got %d", len(got))
		}
	})

	t.Run("truncation keeps multibyte characters whole", func(t *testing.T) {
		got := SanitizeFilename(strings.Repeat("愛", 70))
		if !utf8.ValidString(got) {
			t.Fatalf("expected valid UTF-8, got %q", got)
		}
		if len(got) > 200 || got != strings.Repeat("愛", 66) {
			t.Errorf("expected 66 whole characters, got %d bytes", len(got))
		}
	})
}

func TestParseLogLevel(t *testing.T) {
	if got := ParseLogLevel("DEBUG"); got != log.DebugLevel {
		t.Errorf("expected debug, got %v", got)
	}
	if got := ParseLogLevel("nonsense"); got != log.InfoLevel {
		t.Errorf("expected info fallback, got %v", got)
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mrd.log")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	logger.Info("hello")
}

func TestBackendError(t *testing.T) {
	err := fmt.Errorf("search: %w", &BackendError{Endpoint: "/search", StatusCode: 400, Detail: "No songs provided in request."})

	if !errors.Is(err, ErrBackendStatus) {
		t.Error("expected BackendError to unwrap to ErrBackendStatus")
	}
	if !IsRequestFailure(err) {
		t.Error("expected IsRequestFailure to be true")
	}

	var be *BackendError
	if !errors.As(err, &be) || be.StatusCode != 400 {
		t.Fatalf("expected errors.As to find status 400, got %v", be)
	}
	if !strings.Contains(err.Error(), "No songs provided") {
		t.Errorf("expected detail in message, got %s", err.Error())
	}
	if IsRequestFailure(ErrInvalidInput) {
		t.Error("validation errors are not request failures")
	}
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"a": 1}

	compact, err := MarshalJSON(v, false)
	if err != nil || string(compact) != `{"a":1}` {
		t.Errorf("compact = %s, %v", compact, err)
	}

	pretty, err := MarshalJSON(v, true)
	if err != nil || string(pretty) != "{\n  \"a\": 1\n}" {
		t.Errorf("pretty = %s, %v", pretty, err)
	}
}

package web

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"testing"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

func logLines(t *testing.T, buf *bytes.Buffer, msg string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		if rec["msg"] == msg {
			out = append(out, rec)
		}
	}
	return out
}

func TestAccessLog(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		wantCode  int
		wantLevel string
	}{
		{name: "redirect", target: "/", wantCode: http.StatusFound, wantLevel: "INFO"},
		{name: "client error", target: "/picker/items", wantCode: http.StatusUnauthorized, wantLevel: "WARN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, false, nil)
			buf := captureLogs(t)

			w := env.do(http.MethodGet, tt.target, "", "")
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			reqID := w.Header().Get("X-Request-ID")
			if reqID == "" {
				t.Fatal("missing X-Request-ID header")
			}

			lines := logLines(t, buf, "HTTP request")
			if len(lines) != 1 {
				t.Fatalf("access log lines = %d, want 1: %s", len(lines), buf)
			}
			rec := lines[0]
			if rec["request_id"] != reqID {
				t.Errorf("request_id = %v, want %s", rec["request_id"], reqID)
			}
			if rec["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", rec["level"], tt.wantLevel)
			}
			if rec["path"] != tt.target || rec["status"] != float64(tt.wantCode) {
				t.Errorf("record = %v", rec)
			}
		})
	}
}

func TestAccessLog_SkipsHealthz(t *testing.T) {
	env := newTestEnv(t, false, nil)
	buf := captureLogs(t)

	env.do(http.MethodGet, "/healthz", "", "")
	if lines := logLines(t, buf, "HTTP request"); len(lines) != 0 {
		t.Errorf("healthz logged %d access lines", len(lines))
	}
}

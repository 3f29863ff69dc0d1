package usage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeCredentials(t *testing.T, token string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	data := `{"oauth":{"access_token":"` + token + `"}}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("failed to write credentials: %v", err)
	}
	return path
}

func TestLoadAccessToken(t *testing.T) {
	path := writeCredentials(t, "tok-123")

	token, err := LoadAccessToken(path)
	if err != nil {
		t.Fatalf("LoadAccessToken() error: %v", err)
	}
	if token != "tok-123" {
		t.Errorf("token = %q, want tok-123", token)
	}
}

func TestLoadAccessToken_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "missing file",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope.json")
			},
		},
		{
			name: "malformed json",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "credentials.json")
				os.WriteFile(path, []byte("{"), 0o600)
				return path
			},
		},
		{
			name: "empty token",
			setup: func(t *testing.T) string {
				return writeCredentials(t, "")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadAccessToken(tt.setup(t)); err == nil {
				t.Error("LoadAccessToken() should fail")
			}
		})
	}
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"five_hour": {"utilization": 56.5, "resets_at": "2025-01-06T15:00:00Z"},
			"seven_day": {"utilization": 31.0, "resets_at": "2025-01-13T00:00:00Z"}
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{
		Endpoint:        server.URL,
		CredentialsPath: writeCredentials(t, "tok-123"),
	})

	got, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	if got.Short == nil || got.Short.UtilizationPct != 56.5 {
		t.Errorf("Short = %+v, want utilization 56.5", got.Short)
	}
	wantReset := time.Date(2025, 1, 6, 15, 0, 0, 0, time.UTC)
	if got.Short.ResetsAt == nil || !got.Short.ResetsAt.Equal(wantReset) {
		t.Errorf("Short.ResetsAt = %v, want %s", got.Short.ResetsAt, wantReset)
	}
	if got.Long == nil || got.Long.UtilizationPct != 31.0 {
		t.Errorf("Long = %+v, want utilization 31.0", got.Long)
	}
}

// A null seven-day window marks the long window inapplicable, not an error.
func TestFetch_NullLongWindow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"five_hour": {"utilization": 12.0, "resets_at": "2025-01-06T15:00:00Z"},
			"seven_day": null
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{
		Endpoint:        server.URL,
		CredentialsPath: writeCredentials(t, "tok-123"),
	})

	got, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if got.Long != nil {
		t.Errorf("Long = %+v, want nil for null window", got.Long)
	}
	if got.Short == nil {
		t.Error("Short should still be present")
	}
}

func TestFetch_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewClient(Config{
				Endpoint:        server.URL,
				CredentialsPath: writeCredentials(t, "tok-123"),
			})

			if _, err := client.Fetch(context.Background()); err == nil {
				t.Error("Fetch() should fail")
			}
		})
	}
}

func TestFetch_MissingCredentials(t *testing.T) {
	client := NewClient(Config{
		Endpoint:        "http://127.0.0.1:0",
		CredentialsPath: filepath.Join(t.TempDir(), "nope.json"),
	})

	if _, err := client.Fetch(context.Background()); err == nil {
		t.Error("Fetch() should fail without credentials")
	}
}

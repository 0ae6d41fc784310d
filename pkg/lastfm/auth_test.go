package lastfm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// TestAuthService_GetAuthURL tests the GetAuthURL method.
func TestAuthService_GetAuthURL(t *testing.T) {
	client, err := NewClient(Config{
		APIKey:    "my-api-key",
		APISecret: "my-secret",
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	t.Run("without callback", func(t *testing.T) {
		got := client.Auth().GetAuthURL("")
		expectedURL := "https://www.last.fm/api/auth/?api_key=my-api-key"
		if got != expectedURL {
			t.Errorf("expected URL %q, got %q", expectedURL, got)
		}
	})

	t.Run("with callback", func(t *testing.T) {
		got := client.Auth().GetAuthURL("http://example.com/complete/lastfm/")

		u, err := url.Parse(got)
		if err != nil {
			t.Fatalf("failed to parse URL: %v", err)
		}
		if base := u.Scheme + "://" + u.Host + u.Path; base != DefaultAuthURL {
			t.Errorf("expected base %q, got %q", DefaultAuthURL, base)
		}
		if key := u.Query().Get("api_key"); key != "my-api-key" {
			t.Errorf("expected api_key my-api-key, got %q", key)
		}
		if cb := u.Query().Get("cb"); cb != "http://example.com/complete/lastfm/" {
			t.Errorf("expected cb to round-trip, got %q", cb)
		}
		if u.Query().Get("api_sig") != "" {
			t.Error("authorization redirect must not be signed")
		}
	})
}

// TestAuthService_GetSession tests the GetSession method.
func TestAuthService_GetSession(t *testing.T) {
	tests := []struct {
		name           string
		response       string
		statusCode     int
		wantKey        string
		wantUsername   string
		wantSubscriber bool
		wantErr        error
		errContains    string
	}{
		{
			name:         "success",
			response:     `{"session":{"name":"MyLastFMUsername","key":"d580d57f32848f5dcf574d1ce18d78b2","subscriber":0}}`,
			statusCode:   http.StatusOK,
			wantKey:      "d580d57f32848f5dcf574d1ce18d78b2",
			wantUsername: "MyLastFMUsername",
		},
		{
			name:           "success - subscriber as string",
			response:       `{"session":{"name":"testuser","key":"session-key-abc123","subscriber":"1"}}`,
			statusCode:     http.StatusOK,
			wantKey:        "session-key-abc123",
			wantUsername:   "testuser",
			wantSubscriber: true,
		},
		{
			name:       "empty body",
			response:   ``,
			statusCode: http.StatusOK,
			wantErr:    ErrMalformedResponse,
		},
		{
			name:       "not json",
			response:   `<lfm status="ok"></lfm>`,
			statusCode: http.StatusOK,
			wantErr:    ErrMalformedResponse,
		},
		{
			name:       "missing session",
			response:   `{"something":{}}`,
			statusCode: http.StatusOK,
			wantErr:    ErrMalformedResponse,
		},
		{
			name:       "missing key",
			response:   `{"session":{"name":"testuser"}}`,
			statusCode: http.StatusOK,
			wantErr:    ErrMalformedResponse,
		},
		{
			name:       "missing name",
			response:   `{"session":{"key":"abc"}}`,
			statusCode: http.StatusOK,
			wantErr:    ErrMalformedResponse,
		},
		{
			name:        "unauthorized token",
			response:    `{"error":14,"message":"Unauthorized Token - This token has not been issued"}`,
			statusCode:  http.StatusForbidden,
			wantErr:     &Error{Code: ErrCodeUnauthorizedToken},
			errContains: "error 14",
		},
		{
			name:        "expired token",
			response:    `{"error":15,"message":"This token has expired"}`,
			statusCode:  http.StatusOK,
			wantErr:     &Error{Code: ErrCodeExpiredToken},
			errContains: "error 15",
		},
		{
			name:       "server error",
			response:   `Internal Server Error`,
			statusCode: http.StatusInternalServerError,
			wantErr:    ErrTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)

				if r.Method != http.MethodGet {
					t.Errorf("expected GET request, got %s", r.Method)
				}

				q := r.URL.Query()
				if method := q.Get("method"); method != "auth.getSession" {
					t.Errorf("expected method auth.getSession, got %s", method)
				}
				if token := q.Get("token"); token != "test-token" {
					t.Errorf("expected token test-token, got %s", token)
				}
				if apiKey := q.Get("api_key"); apiKey != "test-api-key" {
					t.Errorf("expected api_key test-api-key, got %s", apiKey)
				}
				if format := q.Get("format"); format != "json" {
					t.Errorf("expected format json, got %s", format)
				}
				if sig := q.Get("api_sig"); sig != "c3b3e61eb13c87a69f8628488321f560" {
					t.Errorf("unexpected api_sig %q", sig)
				}

				w.WriteHeader(tt.statusCode)
				if _, err := w.Write([]byte(tt.response)); err != nil {
					t.Fatalf("failed to write response body: %v", err)
				}
			}))
			defer server.Close()

			client, err := NewClient(Config{
				APIKey:    "test-api-key",
				APISecret: "test-secret",
				BaseURL:   server.URL,
			})
			if err != nil {
				t.Fatalf("failed to create client: %v", err)
			}

			session, err := client.Auth().GetSession(context.Background(), "test-token")

			if got := atomic.LoadInt32(&calls); got != 1 {
				t.Errorf("expected exactly 1 request, got %d", got)
			}

			if tt.wantErr != nil {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error matching %v, got %v", tt.wantErr, err)
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("expected error to contain %q, got %q", tt.errContains, err.Error())
				}
				if session != nil {
					t.Errorf("expected nil session on error, got %+v", session)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if session.Key != tt.wantKey {
				t.Errorf("expected key %q, got %q", tt.wantKey, session.Key)
			}
			if session.Username != tt.wantUsername {
				t.Errorf("expected username %q, got %q", tt.wantUsername, session.Username)
			}
			if session.Subscriber != tt.wantSubscriber {
				t.Errorf("expected subscriber %v, got %v", tt.wantSubscriber, session.Subscriber)
			}
		})
	}
}

// TestAuthService_GetSession_TransportFailure tests an unreachable API.
func TestAuthService_GetSession_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client, err := NewClient(Config{
		APIKey:    "test-api-key",
		APISecret: "test-secret",
		BaseURL:   baseURL,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	session, err := client.Auth().GetSession(context.Background(), "REQUESTTOKEN")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
	if session != nil {
		t.Errorf("expected nil session, got %+v", session)
	}
}

// TestAuthService_GetSession_ContextCancellation tests context cancellation.
func TestAuthService_GetSession_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Simulate slow response
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"session":{"name":"u","key":"k"}}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{
		APIKey:    "test-api-key",
		APISecret: "test-secret",
		BaseURL:   server.URL,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = client.Auth().GetSession(ctx, "test-token")
	if err == nil {
		t.Fatal("expected error due to context timeout, got nil")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

// TestClient_Timeout tests that the default HTTP client enforces Timeout.
func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"session":{"name":"u","key":"k"}}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{
		APIKey:    "test-api-key",
		APISecret: "test-secret",
		BaseURL:   server.URL,
		Timeout:   20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	_, err = client.Auth().GetSession(context.Background(), "test-token")
	if !errors.Is(err, ErrTransport) {
		t.Errorf("expected ErrTransport after timeout, got %v", err)
	}
}

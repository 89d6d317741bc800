package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeEnvelope(t *testing.T, w http.ResponseWriter, status int, body map[string]any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestSignInCapturesSessionToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/auth/signin", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "amy@bakery.test", req["email"])

		writeEnvelope(t, w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"user":      map[string]any{"id": "u1", "email": "amy@bakery.test"},
				"sessionId": "sess-123",
			},
		})
	}))
	defer srv.Close()

	tokens := &MemoryTokenStore{}
	c := NewClient(srv.URL, time.Second, tokens, nil)

	res, err := c.SignIn(context.Background(), "amy@bakery.test", "secret123")
	require.NoError(t, err)
	require.Equal(t, "sess-123", res.SessionID)
	require.Equal(t, "u1", res.User["id"])
	require.Equal(t, "sess-123", tokens.Token())
}

func TestRequestsCarryBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeEnvelope(t, w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"user": map[string]any{"id": "u1"}},
		})
	}))
	defer srv.Close()

	tokens := &MemoryTokenStore{}
	tokens.SetToken("sess-123")
	c := NewClient(srv.URL, time.Second, tokens, nil)

	_, err := c.GetProfile(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer sess-123", gotAuth)
}

func TestErrorEnvelopeBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"error":   map[string]any{"code": "UNAUTHORIZED", "message": "Invalid credentials"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil, nil)
	_, err := c.SignIn(context.Background(), "amy@bakery.test", "wrong")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, "UNAUTHORIZED", apiErr.Code)
	require.Equal(t, "Invalid credentials", apiErr.Message)
	require.True(t, IsUnauthorized(err))
}

func TestErrorEnvelopeDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusInternalServerError, map[string]any{"success": false})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil, nil)
	err := c.ChangePassword(context.Background(), "old", "newpw1234")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	require.Equal(t, "UNKNOWN_ERROR", apiErr.Code)
	require.Equal(t, "An error occurred", apiErr.Message)
	require.False(t, IsUnauthorized(err))
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL, time.Second, nil, nil)
	_, err := c.SignIn(context.Background(), "amy@bakery.test", "pw")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	require.Equal(t, "NETWORK_ERROR", apiErr.Code)
	require.Equal(t, NetworkErrorMessage, apiErr.Message)
	require.Zero(t, apiErr.Status)
	require.False(t, IsUnauthorized(err))
}

func TestMalformedBodyIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>gateway timeout</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil, nil)
	_, err := c.GetProfile(context.Background())
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	require.Equal(t, "NETWORK_ERROR", apiErr.Code)
}

func TestSignOutClearsTokenEvenOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusInternalServerError, map[string]any{"success": false})
	}))
	defer srv.Close()

	tokens := &MemoryTokenStore{}
	tokens.SetToken("sess-123")
	c := NewClient(srv.URL, time.Second, tokens, nil)

	err := c.SignOut(context.Background())
	require.Error(t, err)
	require.Empty(t, tokens.Token())
}

func TestProbeSessionAlive(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   ProbeStatus
	}{
		{"ok", http.StatusOK, ProbeOK},
		{"no content", http.StatusNoContent, ProbeOK},
		{"unauthorized", http.StatusUnauthorized, ProbeUnauthorized},
		{"server error", http.StatusInternalServerError, ProbeUnknown},
		{"rate limited", http.StatusTooManyRequests, ProbeUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodHead, r.Method)
				require.Equal(t, "/api/v1/auth/profile", r.URL.Path)
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, time.Second, nil, nil)
			require.Equal(t, tc.want, c.ProbeSessionAlive(context.Background()))
		})
	}

	t.Run("transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		c := NewClient(srv.URL, time.Second, nil, nil)
		require.Equal(t, ProbeUnknown, c.ProbeSessionAlive(context.Background()))
	})
}

func TestIsUnauthorized(t *testing.T) {
	require.True(t, IsUnauthorized(&APIError{Status: http.StatusUnauthorized}))
	require.True(t, IsUnauthorized(&APIError{Code: "UNAUTHORIZED"}))
	require.False(t, IsUnauthorized(&APIError{Status: http.StatusForbidden, Code: "FORBIDDEN"}))
	require.False(t, IsUnauthorized(nil))
}

package fraudclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapok/customer-service/internal/auth"
)

func TestVerify(t *testing.T) {
	tokens := auth.NewTokenManager("secret", 5)

	tests := []struct {
		name      string
		status    int
		body      string
		want      bool
		wantError string
	}{
		{name: "favorable verdict", status: http.StatusOK, body: `{"isFraudster":false}`, want: false},
		{name: "adverse verdict", status: http.StatusOK, body: `{"isFraudster":true}`, want: true},
		{name: "server error", status: http.StatusInternalServerError, body: `boom`, wantError: "status 500"},
		{name: "malformed body", status: http.StatusOK, body: `{`, wantError: "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/fraud-check/abc", r.URL.Path)

				header := r.Header.Get("Authorization")
				assert.True(t, strings.HasPrefix(header, "Bearer "))
				if claims, err := tokens.ParseToken(strings.TrimPrefix(header, "Bearer ")); assert.NoError(t, err) {
					assert.Equal(t, CallerName, claims.Service)
				}

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			verdict, err := NewClient(srv.URL, tokens, time.Second).Verify(context.Background(), "abc")
			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "abc", verdict.CustomerID)
			assert.Equal(t, tt.want, verdict.IsFraudster)
		})
	}
}

func TestVerifyHonoursContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient(srv.URL, nil, 5*time.Second).Verify(ctx, "abc")
	assert.Error(t, err)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		preflight  bool
		wantOrigin string
		wantStatus int
	}{
		{name: "allowed origin", allowed: []string{"http://localhost:3000"}, origin: "http://localhost:3000", wantOrigin: "http://localhost:3000", wantStatus: http.StatusTeapot},
		{name: "trailing slash in config", allowed: []string{"https://app.example.com/"}, origin: "https://app.example.com", wantOrigin: "https://app.example.com", wantStatus: http.StatusTeapot},
		{name: "other origin", allowed: []string{"http://localhost:3000"}, origin: "https://evil.example", wantStatus: http.StatusTeapot},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://any.example", wantOrigin: "https://any.example", wantStatus: http.StatusTeapot},
		{name: "preflight", allowed: []string{"http://localhost:3000"}, origin: "http://localhost:3000", preflight: true, wantOrigin: "http://localhost:3000", wantStatus: http.StatusNoContent},
		{name: "no origin", allowed: []string{"*"}, wantStatus: http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := http.MethodGet
			if tt.preflight {
				method = http.MethodOptions
			}
			req := httptest.NewRequest(method, "/api/personas", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPut)
			}
			w := httptest.NewRecorder()
			CORS(tt.allowed)(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantOrigin != "" {
				assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
				assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}

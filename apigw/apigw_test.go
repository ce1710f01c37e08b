package apigw

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/go-cmp/cmp"
)

type received struct {
	Method      string
	Path        string
	Query       url.Values
	ContentType string
	Accept      []string
	Body        string
}

func TestHandler(t *testing.T) {
	tests := []struct {
		name     string
		req      events.APIGatewayProxyRequest
		expected received
	}{
		{
			name: "plain bodies are passed through",
			req: events.APIGatewayProxyRequest{
				HTTPMethod: http.MethodPost,
				Path:       "/api/chat",
				Headers:    map[string]string{"Content-Type": "application/json"},
				Body:       `{"message":"Hi"}`,
			},
			expected: received{
				Method:      http.MethodPost,
				Path:        "/api/chat",
				Query:       url.Values{},
				ContentType: "application/json",
				Body:        `{"message":"Hi"}`,
			},
		},
		{
			name: "base64 bodies are decoded",
			req: events.APIGatewayProxyRequest{
				HTTPMethod:      http.MethodPost,
				Path:            "/api/chat",
				Body:            base64.StdEncoding.EncodeToString([]byte(`{"message":"Hi"}`)),
				IsBase64Encoded: true,
			},
			expected: received{
				Method: http.MethodPost,
				Path:   "/api/chat",
				Query:  url.Values{},
				Body:   `{"message":"Hi"}`,
			},
		},
		{
			name: "query string parameters are copied",
			req: events.APIGatewayProxyRequest{
				HTTPMethod:            http.MethodGet,
				Path:                  "/",
				QueryStringParameters: map[string]string{"b": "2", "a": "1"},
			},
			expected: received{
				Method: http.MethodGet,
				Path:   "/",
				Query:  url.Values{"a": {"1"}, "b": {"2"}},
			},
		},
		{
			name: "multi-value query strings and headers are copied",
			req: events.APIGatewayProxyRequest{
				HTTPMethod:                      http.MethodGet,
				Path:                            "/",
				MultiValueQueryStringParameters: map[string][]string{"id": {"1", "2"}},
				MultiValueHeaders:               map[string][]string{"Accept": {"application/json", "text/plain"}},
			},
			expected: received{
				Method: http.MethodGet,
				Path:   "/",
				Query:  url.Values{"id": {"1", "2"}},
				Accept: []string{"application/json", "text/plain"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var actual received
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				actual = received{
					Method:      r.Method,
					Path:        r.URL.Path,
					Query:       r.URL.Query(),
					ContentType: r.Header.Get("Content-Type"),
					Accept:      r.Header.Values("Accept"),
					Body:        string(body),
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Add("Vary", "Origin")
				w.Header().Add("Vary", "Access-Control-Request-Method")
				w.WriteHeader(http.StatusTeapot)
				io.WriteString(w, `{"response":"ok"}`)
			})

			resp, err := Handler(h)(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.expected, actual); diff != "" {
				t.Error(diff)
			}
			if resp.StatusCode != http.StatusTeapot {
				t.Errorf("expected status %d, got %d", http.StatusTeapot, resp.StatusCode)
			}
			if resp.Body != `{"response":"ok"}` {
				t.Errorf("unexpected body %q", resp.Body)
			}
			if diff := cmp.Diff([]string{"Origin", "Access-Control-Request-Method"}, resp.MultiValueHeaders["Vary"]); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestHandlerInvalidBase64(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	})
	_, err := Handler(h)(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            "/api/chat",
		Body:            "not base64!",
		IsBase64Encoded: true,
	})
	if err == nil {
		t.Error("expected error, got nil")
	}
}

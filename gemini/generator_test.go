package gemini_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/fwojciec/commitsplit"
	"github.com/fwojciec/commitsplit/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, status int, body string, captured *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		if captured != nil {
			b, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			*captured = string(b)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerator_Generate(t *testing.T) {
	t.Parallel()

	var body string
	srv := newServer(t, http.StatusOK, `{
  "candidates": [{"content": {"role": "model", "parts": [{"text": "fix(parser): handle empty hunks"}]}, "finishReason": "STOP"}],
  "usageMetadata": {"promptTokenCount": 80, "candidatesTokenCount": 7, "totalTokenCount": 87}
}`, &body)

	g, err := gemini.NewGenerator(context.Background(), "test-key", gemini.WithBaseURL(srv.URL), gemini.WithModel("gemini-test"))
	require.NoError(t, err)
	assert.Equal(t, "gemini", g.Name())

	text, err := g.Generate(context.Background(), commitsplit.GenerationRequest{
		SystemInstruction: "write commits",
		Files:             []string{"parser.go"},
		Diff:              "diff --git a/parser.go b/parser.go\n",
		SuggestedType:     commitsplit.TypeFix,
	})
	require.NoError(t, err)
	assert.Equal(t, "fix(parser): handle empty hunks", text)

	var sent struct {
		Contents []struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
		SystemInstruction struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"systemInstruction"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &sent))
	require.Len(t, sent.Contents, 1)
	require.NotEmpty(t, sent.Contents[0].Parts)
	assert.Contains(t, sent.Contents[0].Parts[0].Text, "Suggested type: fix")
	require.NotEmpty(t, sent.SystemInstruction.Parts)
	assert.Equal(t, "write commits", sent.SystemInstruction.Parts[0].Text)
}

func TestGenerator_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		target error
	}{
		{
			name:   "permission denied",
			status: http.StatusForbidden,
			body:   `{"error":{"code":403,"message":"Method doesn't allow unregistered callers","status":"PERMISSION_DENIED"}}`,
			target: commitsplit.ErrAuthentication,
		},
		{
			name:   "invalid key",
			status: http.StatusBadRequest,
			body:   `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`,
			target: commitsplit.ErrAuthentication,
		},
		{
			name:   "unknown model",
			status: http.StatusNotFound,
			body:   `{"error":{"code":404,"message":"models/gemini-x is not found","status":"NOT_FOUND"}}`,
			target: commitsplit.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newServer(t, tt.status, tt.body, nil)
			g, err := gemini.NewGenerator(context.Background(), "test-key", gemini.WithBaseURL(srv.URL))
			require.NoError(t, err)

			_, err = g.Generate(context.Background(), commitsplit.GenerationRequest{Diff: "x"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestNewGenerator_MissingKey(t *testing.T) {
	t.Parallel()

	_, err := gemini.NewGenerator(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, commitsplit.ErrAuthentication))
	assert.Contains(t, errors.FlattenHints(err), "GEMINI_API_KEY")
}

func TestGenerator_Status(t *testing.T) {
	t.Parallel()

	serve := func(t *testing.T, status int, body string) *httptest.Server {
		t.Helper()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasSuffix(r.URL.Path, "/models/gemini-test") {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}))
		t.Cleanup(srv.Close)
		return srv
	}

	t.Run("active key", func(t *testing.T) {
		t.Parallel()

		srv := serve(t, http.StatusOK, `{"name": "models/gemini-test", "displayName": "Gemini Test"}`)
		g, err := gemini.NewGenerator(context.Background(), "test-key", gemini.WithBaseURL(srv.URL), gemini.WithModel("gemini-test"))
		require.NoError(t, err)

		st, err := g.Status(context.Background())
		require.NoError(t, err)
		assert.Equal(t, commitsplit.ProviderStatus{Provider: "gemini", State: commitsplit.ProviderActive}, st)
	})

	t.Run("invalid key", func(t *testing.T) {
		t.Parallel()

		srv := serve(t, http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`)
		g, err := gemini.NewGenerator(context.Background(), "test-key", gemini.WithBaseURL(srv.URL), gemini.WithModel("gemini-test"))
		require.NoError(t, err)

		st, err := g.Status(context.Background())
		require.NoError(t, err)
		assert.Equal(t, commitsplit.ProviderInvalidKey, st.State)
	})
}

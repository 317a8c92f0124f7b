package analyzer_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/analyzer"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
)

type memObjects map[string][]byte

func (m memObjects) Open(_ context.Context, key string) (io.ReadCloser, int64, string, error) {
	b, ok := m[key]
	if !ok {
		return nil, 0, "", errors.New("missing")
	}

	return io.NopCloser(bytes.NewReader(b)), int64(len(b)), "image/jpeg", nil
}

func candidate(t *testing.T, text string) []byte {
	t.Helper()

	b, err := sonic.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content":      map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
			"finishReason": "STOP",
		}},
	})
	require.NoError(t, err)

	return b
}

const goodOutput = `{"caption":"Two friends on a beach","tags":["Beach","sunset","beach","friends"],
"moderation":{"verdict":"SAFE","reasons":["no issues"]},
"extractedEntities":{"people":["Maya","Person 1"],"location":"Lisbon","text":""},
"suggestion":"Crop the horizon"}`

func newClient(url string, objects analyzer.ObjectReader) *analyzer.Gemini {
	return analyzer.NewGemini(configs.AnalyzerConfig{
		Endpoint:       url,
		Model:          "gemini-test",
		APIKey:         "k",
		Timeout:        5 * time.Second,
		MaxInlineBytes: 1 << 20,
	}, objects)
}

func TestGeminiAnalyze(t *testing.T) {
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-goog-api-key"))

		raw, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(raw, &gotBody)

		_, _ = w.Write(candidate(t, goodOutput))
	}))
	defer srv.Close()

	c := newClient(srv.URL, memObjects{"media/a/1/x.jpg": []byte("jpegbytes")})

	res, err := c.Analyze(context.Background(), analyzer.Request{
		RecordID:    "1",
		ObjectKey:   "media/a/1/x.jpg",
		MimeType:    "image/jpeg",
		KnownPeople: []string{"Maya"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Two friends on a beach", res.Caption)

	a := res.Analysis()
	assert.Equal(t, []string{"beach", "sunset", "friends"}, []string(a.Tags))
	assert.Equal(t, media.VerdictSafe, a.Verdict)
	assert.Equal(t, "SAFE: no issues", a.SafetyReason)
	assert.Equal(t, "Lisbon", a.Location)
	assert.Equal(t, []string{"Maya", "Person 1"}, []string(a.People))

	prompt, _ := sonic.MarshalString(gotBody["contents"])
	assert.Contains(t, prompt, "Maya")
	assert.Contains(t, prompt, "anBlZ2J5dGVz") // base64("jpegbytes")
}

func TestGeminiRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota"}}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL, memObjects{"k": []byte("x")})

	_, err := c.Analyze(context.Background(), analyzer.Request{ObjectKey: "k", MimeType: "image/png"})
	require.Error(t, err)

	var se *analyzer.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestGeminiMalformed(t *testing.T) {
	outputs := map[string]string{
		"not json":   "sorry, I cannot help",
		"no tags":    `{"caption":"x","tags":[],"moderation":{"verdict":"SAFE"}}`,
		"no caption": `{"caption":"","tags":["a"],"moderation":{"verdict":"SAFE"}}`,
	}

	for name, out := range outputs {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write(candidate(t, out))
			}))
			defer srv.Close()

			_, err := newClient(srv.URL, memObjects{"k": []byte("x")}).
				Analyze(context.Background(), analyzer.Request{ObjectKey: "k"})
			assert.ErrorIs(t, err, analyzer.ErrMalformed)
		})
	}
}

func TestGeminiFencedOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(candidate(t, "```json\n"+goodOutput+"\n```"))
	}))
	defer srv.Close()

	res, err := newClient(srv.URL, memObjects{"k": []byte("x")}).
		Analyze(context.Background(), analyzer.Request{ObjectKey: "k"})
	require.NoError(t, err)
	assert.Len(t, res.Tags, 4)
}

func TestGeminiDownloadURLAndLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte(strings.Repeat("a", 64)))

			return
		}

		_, _ = w.Write(candidate(t, goodOutput))
	}))
	defer srv.Close()

	c := newClient(srv.URL, nil)

	_, err := c.Analyze(context.Background(), analyzer.Request{DownloadURL: srv.URL + "/blob"})
	require.NoError(t, err)

	small := analyzer.NewGemini(configs.AnalyzerConfig{Endpoint: srv.URL, Model: "m", MaxInlineBytes: 16}, nil)
	_, err = small.Analyze(context.Background(), analyzer.Request{DownloadURL: srv.URL + "/blob"})
	assert.ErrorIs(t, err, analyzer.ErrTooLarge)

	_, err = c.Analyze(context.Background(), analyzer.Request{})
	assert.Error(t, err)
}

type failing struct{ calls atomic.Int32 }

func (f *failing) Analyze(context.Context, analyzer.Request) (*analyzer.Result, error) {
	f.calls.Add(1)

	return nil, errors.New("upstream down")
}

func TestGuardedBreakerOpens(t *testing.T) {
	next := &failing{}
	g := analyzer.NewGuarded(next, configs.AnalyzerConfig{
		CircuitBreaker: configs.CircuitBreakerConfig{
			Enabled:           true,
			FailureRate:       0.5,
			MinRequests:       3,
			IntervalSeconds:   60,
			TimeoutSeconds:    60,
			MaxRequestsInHalf: 1,
		},
	})

	for i := 0; i < 3; i++ {
		_, err := g.Analyze(context.Background(), analyzer.Request{})
		require.Error(t, err)
	}

	_, err := g.Analyze(context.Background(), analyzer.Request{})
	assert.ErrorIs(t, err, analyzer.ErrUnavailable)
	assert.Equal(t, int32(3), next.calls.Load())
	assert.Equal(t, "open", g.State())
}

func TestGuardedRateLimitHonorsContext(t *testing.T) {
	g := analyzer.NewGuarded(&failing{}, configs.AnalyzerConfig{RPS: 0.001, Burst: 1})

	_, _ = g.Analyze(context.Background(), analyzer.Request{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.Analyze(ctx, analyzer.Request{})
	assert.Error(t, err)
}

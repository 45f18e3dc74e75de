package repository

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang-headline-signal/internal/entity"
	"golang-headline-signal/internal/scoring/config"
	"golang-headline-signal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier(t *testing.T, handler http.HandlerFunc) SentimentClassifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		HuggingFace: config.HuggingFace{
			BaseURL: srv.URL + "/models",
			APIKey:  "test-key",
			Model:   "ProsusAI/finbert",
		},
	}
	return NewHuggingFaceClassifier(cfg, logger.NewNop())
}

func reasonOf(t *testing.T, err error) entity.ClassificationReason {
	t.Helper()
	var ce *entity.ClassificationError
	require.True(t, errors.As(err, &ce), "expected ClassificationError, got %v", err)
	return ce.Reason
}

func TestHuggingFaceClassifier_Classify(t *testing.T) {
	var gotPath, gotAuth, gotInput string
	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		var req huggingFaceRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotInput = req.Inputs
		_, _ = w.Write([]byte(`[[{"label":"positive","score":0.85},{"label":"negative","score":0.05},{"label":"neutral","score":0.10}]]`))
	})

	scores, err := c.Classify(context.Background(), "Apple beats earnings")
	require.NoError(t, err)
	assert.InDelta(t, 0.85, scores.Positive, 1e-9)
	assert.InDelta(t, 0.05, scores.Negative, 1e-9)
	assert.InDelta(t, 0.10, scores.Neutral, 1e-9)
	assert.Equal(t, "/models/ProsusAI/finbert", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "Apple beats earnings", gotInput)
	assert.Equal(t, "ProsusAI/finbert", c.Model())
}

func TestHuggingFaceClassifier_FlatResponseAndLabelCase(t *testing.T) {
	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"label":"Negative","score":0.7},{"label":"Positive","score":0.1},{"label":"Neutral","score":0.2}]`))
	})

	scores, err := c.Classify(context.Background(), "Tesla recalls vehicles")
	require.NoError(t, err)
	assert.InDelta(t, 0.7, scores.Negative, 1e-9)
}

func TestHuggingFaceClassifier_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   entity.ClassificationReason
	}{
		{"model loading", http.StatusServiceUnavailable, `{"error":"loading"}`, entity.ReasonUpstreamUnavailable},
		{"rate limited", http.StatusTooManyRequests, `{}`, entity.ReasonUpstreamUnavailable},
		{"bad input", http.StatusBadRequest, `{"error":"bad"}`, entity.ReasonMalformedInput},
		{"gateway timeout", http.StatusGatewayTimeout, `{}`, entity.ReasonTimeout},
		{"not json", http.StatusOK, `<html>`, entity.ReasonMalformedOutput},
		{"missing label", http.StatusOK, `[[{"label":"positive","score":0.9},{"label":"negative","score":0.1}]]`, entity.ReasonMalformedOutput},
		{"scores do not sum", http.StatusOK, `[[{"label":"positive","score":0.9},{"label":"negative","score":0.9},{"label":"neutral","score":0.9}]]`, entity.ReasonMalformedOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.Classify(context.Background(), "some headline")
			require.Error(t, err)
			assert.Equal(t, tt.want, reasonOf(t, err))
		})
	}
}

func TestHuggingFaceClassifier_Timeout(t *testing.T) {
	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Classify(ctx, "slow headline")
	require.Error(t, err)
	assert.Equal(t, entity.ReasonTimeout, reasonOf(t, err))
}

func TestHuggingFaceClassifier_EmptyHeadline(t *testing.T) {
	called := false
	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.Classify(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, entity.ReasonMalformedInput, reasonOf(t, err))
	assert.False(t, called)
}

func TestParseGeminiScores(t *testing.T) {
	scores, err := parseGeminiScores("```json\n{\"positive\": 0.2, \"negative\": 0.2, \"neutral\": 0.6}\n```")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, scores.Neutral, 1e-9)

	_, err = parseGeminiScores(`{"positive": 8, "negative": 1, "neutral": 1}`)
	assert.Error(t, err)

	_, err = parseGeminiScores(`{"positive": 0.9, "negative": 0.9, "neutral": 0.2}`)
	assert.Error(t, err)

	_, err = parseGeminiScores(`{"positive": -0.2, "negative": 0.6, "neutral": 0.6}`)
	assert.Error(t, err)

	_, err = parseGeminiScores(`{"positive": 1}`)
	assert.Error(t, err)

	_, err = parseGeminiScores(`not json`)
	assert.Error(t, err)
}

func TestBuildSentimentPrompt(t *testing.T) {
	p := BuildSentimentPrompt(`Fed "holds" rates`)
	assert.Contains(t, p, `"Fed \"holds\" rates"`)
	assert.Contains(t, p, `"positive"`)
}

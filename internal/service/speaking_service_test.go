package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"lingua_edu_backend/internal/config"
	"lingua_edu_backend/internal/util"
)

func speakingConfig(baseURL string) *config.Config {
	return &config.Config{
		Speech: config.SpeechConfig{
			BaseURL:        baseURL,
			APIKey:         "test-key",
			Model:          "grader-1",
			TimeoutSeconds: 5,
		},
	}
}

func graderServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		})
	}))
}

func TestSpeakingEvaluateParsesVerdict(t *testing.T) {
	srv := graderServer(t, `{"score": 85, "feedback": "Clear past tense."}`)
	defer srv.Close()

	svc := NewSpeakingService(speakingConfig(srv.URL))
	score, feedback, err := svc.Evaluate(context.Background(), "I went home", "I went home", "past tense drill")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if score != 85 {
		t.Fatalf("expected score 85, got %d", score)
	}
	if feedback != "Clear past tense." {
		t.Fatalf("unexpected feedback %q", feedback)
	}
}

func TestSpeakingEvaluateToleratesCodeFences(t *testing.T) {
	srv := graderServer(t, "```json\n{\"score\": 40, \"feedback\": \"Work on word order.\"}\n```")
	defer srv.Close()

	svc := NewSpeakingService(speakingConfig(srv.URL))
	score, _, err := svc.Evaluate(context.Background(), "home I went", "I went home", "")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if score != 40 {
		t.Fatalf("expected score 40, got %d", score)
	}
}

func TestSpeakingEvaluateClampsScore(t *testing.T) {
	srv := graderServer(t, `{"score": 150, "feedback": "ok"}`)
	defer srv.Close()

	svc := NewSpeakingService(speakingConfig(srv.URL))
	score, _, err := svc.Evaluate(context.Background(), "x", "y", "")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if score != 100 {
		t.Fatalf("expected clamp to 100, got %d", score)
	}
}

func TestSpeakingEvaluateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	svc := NewSpeakingService(speakingConfig(srv.URL))
	_, _, err := svc.Evaluate(context.Background(), "x", "y", "")
	if !errors.Is(err, util.ErrSpeakingUnavailable) {
		t.Fatalf("expected ErrSpeakingUnavailable on upstream failure, got %v", err)
	}
}

func TestSpeakingEvaluateUnconfigured(t *testing.T) {
	svc := NewSpeakingService(&config.Config{})
	_, _, err := svc.Evaluate(context.Background(), "x", "y", "")
	if !errors.Is(err, util.ErrSpeakingUnavailable) {
		t.Fatalf("expected ErrSpeakingUnavailable when grading is not configured, got %v", err)
	}
}

func TestParseVerdictRejectsProse(t *testing.T) {
	if _, err := parseVerdict("I would give this about a 70."); err == nil {
		t.Fatal("expected error for verdict without JSON")
	}
}

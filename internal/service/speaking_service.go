package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lingua_edu_backend/internal/config"
	"lingua_edu_backend/internal/util"
	"lingua_edu_backend/pkg/logger"

	"go.uber.org/zap"
)

// SpeakingService grades spoken responses with an LLM collaborator over an
// OpenAI-compatible chat completions API. It implements SpeakingGrader.
type SpeakingService struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewSpeakingService(cfg *config.Config) *SpeakingService {
	return &SpeakingService{
		baseURL: strings.TrimRight(cfg.Speech.BaseURL, "/"),
		apiKey:  cfg.Speech.APIKey,
		model:   cfg.Speech.Model,
		client: &http.Client{
			Timeout: time.Duration(cfg.Speech.TimeoutSeconds) * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const speakingSystemPrompt = `You are an English speaking examiner. Grade the learner's spoken response (provided as a transcript) against the reference answer for meaning, grammar and vocabulary. Reply with strict JSON only, no markdown: {"score": <integer 0-100>, "feedback": "<one or two sentences for the learner>"}`

type speakingVerdict struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Evaluate sends the transcript and reference to the grader and parses its
// verdict. The score is clamped to 0-100 so a misbehaving model cannot
// corrupt the ledger.
func (s *SpeakingService) Evaluate(ctx context.Context, response, reference, promptContext string) (int, string, error) {
	if s.baseURL == "" || s.apiKey == "" {
		return 0, "", fmt.Errorf("%w: grading not configured", util.ErrSpeakingUnavailable)
	}

	userPrompt := fmt.Sprintf("Exercise context: %s\n\nReference answer: %s\n\nLearner response: %s",
		promptContext, reference, response)

	payload := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: speakingSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.2,
		MaxTokens:   300,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", util.ErrSpeakingUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, "", fmt.Errorf("%w: status %d", util.ErrSpeakingUnavailable, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return 0, "", fmt.Errorf("parsing grader response failed: %w", err)
	}
	if parsed.Error != nil {
		return 0, "", fmt.Errorf("%w: %s", util.ErrSpeakingUnavailable, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return 0, "", fmt.Errorf("%w: empty response", util.ErrSpeakingUnavailable)
	}

	verdict, err := parseVerdict(parsed.Choices[0].Message.Content)
	if err != nil {
		logger.Log.Warn("unparseable grader verdict",
			zap.String("content", parsed.Choices[0].Message.Content),
			zap.Error(err))
		return 0, "", err
	}

	score := verdict.Score
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, verdict.Feedback, nil
}

// parseVerdict tolerates models that wrap the JSON in code fences or prose by
// extracting the outermost object.
func parseVerdict(content string) (*speakingVerdict, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in verdict")
	}

	var v speakingVerdict
	if err := json.Unmarshal([]byte(content[start:end+1]), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

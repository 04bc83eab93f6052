package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Sentinel errors separating the two upstream failure modes: the provider not
// answering usefully at all, versus answering with content we cannot use.
// Callers refund credits in both cases but report them differently.
var (
	ErrUnavailable     = errors.New("ai provider unavailable")
	ErrInvalidResponse = errors.New("ai provider returned unusable output")
)

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func NewClient(cfg Config) *Client {
	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()

	resp, err := c.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().
			Err(err).
			Dur("elapsed", elapsed).
			Msg("ai request error")
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("ai request failed")
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrUnavailable, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrInvalidResponse)
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("ai request successful")

	return parsed.Choices[0].Message.Content, nil
}

// completeJSON runs a completion and unmarshals the (possibly fenced) JSON
// output into dest. A parse failure is an invalid-response error: the
// provider answered, but not usably.
func (c *Client) completeJSON(ctx context.Context, system, user string, dest any) error {
	content, err := c.complete(ctx, system, user)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stripFences(content)), dest); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// stripFences removes a markdown code fence around a JSON payload, which
// models emit even when told not to.
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// TailorApplication produces tailored CV bullets and/or a cover letter for a
// job description and candidate profile.
func (c *Client) TailorApplication(ctx context.Context, jobDescription, profile string, mode TailorMode) (*TailorResult, error) {
	var result TailorResult
	if err := c.completeJSON(ctx, tailorSystemPrompt(mode), tailorUserPrompt(jobDescription, profile), &result); err != nil {
		return nil, err
	}

	switch mode {
	case TailorModeCV:
		if len(result.CVBullets) == 0 {
			return nil, fmt.Errorf("%w: missing cv bullets", ErrInvalidResponse)
		}
	case TailorModeCover:
		if result.CoverLetter == "" {
			return nil, fmt.Errorf("%w: missing cover letter", ErrInvalidResponse)
		}
	default:
		if len(result.CVBullets) == 0 || result.CoverLetter == "" {
			return nil, fmt.Errorf("%w: incomplete tailoring output", ErrInvalidResponse)
		}
	}

	return &result, nil
}

// RefineBullet applies one edit instruction to a single CV bullet.
func (c *Client) RefineBullet(ctx context.Context, bullet string, instruction BulletInstruction) (string, error) {
	var result struct {
		Bullet string `json:"bullet"`
	}
	if err := c.completeJSON(ctx, refineBulletSystemPrompt(instruction), bullet, &result); err != nil {
		return "", err
	}
	if result.Bullet == "" {
		return "", fmt.Errorf("%w: missing refined bullet", ErrInvalidResponse)
	}
	return result.Bullet, nil
}

// ShortenCoverLetter compresses a cover letter while keeping its claims.
func (c *Client) ShortenCoverLetter(ctx context.Context, coverLetter string) (string, error) {
	var result struct {
		CoverLetter string `json:"coverLetter"`
	}
	if err := c.completeJSON(ctx, shortenCoverSystemPrompt, coverLetter, &result); err != nil {
		return "", err
	}
	if result.CoverLetter == "" {
		return "", fmt.Errorf("%w: missing cover letter", ErrInvalidResponse)
	}
	return result.CoverLetter, nil
}

// RegenerateCoverLetter writes a fresh cover letter for the same job from the
// stored inputs.
func (c *Client) RegenerateCoverLetter(ctx context.Context, jobDescription, profile string) (string, error) {
	var result struct {
		CoverLetter string `json:"coverLetter"`
	}
	if err := c.completeJSON(ctx, regenerateCoverSystemPrompt, tailorUserPrompt(jobDescription, profile), &result); err != nil {
		return "", err
	}
	if result.CoverLetter == "" {
		return "", fmt.Errorf("%w: missing cover letter", ErrInvalidResponse)
	}
	return result.CoverLetter, nil
}

// GenerateReply drafts an email reply to an inbound recruiter message.
func (c *Client) GenerateReply(ctx context.Context, emailBody string, tone ReplyTone) (string, error) {
	var result struct {
		Reply string `json:"reply"`
	}
	if err := c.completeJSON(ctx, replySystemPrompt(tone), emailBody, &result); err != nil {
		return "", err
	}
	if result.Reply == "" {
		return "", fmt.Errorf("%w: missing reply", ErrInvalidResponse)
	}
	return result.Reply, nil
}

package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voice-quiz/internal/domain"
)

const (
	DefaultBaseURL = "https://api.anthropic.com/v1"
	DefaultModel   = "claude-sonnet-4-20250514"
)

// ClaudeClient maps a transcribed answer onto the question's vocabulary.
type ClaudeClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewClaudeClient(apiKey, model string) *ClaudeClient {
	return NewClaudeClientWithURL(apiKey, model, DefaultBaseURL)
}

func NewClaudeClientWithURL(apiKey, model, baseURL string) *ClaudeClient {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &ClaudeClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system"`
	Messages    []message `json:"messages"`
}

type response struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *ClaudeClient) Ready() error {
	if c.apiKey == "" {
		return fmt.Errorf("anthropic API key is not set: %w", domain.ErrConfiguration)
	}
	return nil
}

// MapAnswer returns one vocabulary token, domain.TokenRepeat or
// domain.TokenUnclear for what the player said.
func (c *ClaudeClient) MapAnswer(ctx context.Context, transcript string, q domain.Question) (string, error) {
	if err := c.Ready(); err != nil {
		return "", err
	}

	bodyBytes, err := json.Marshal(request{
		Model:     c.model,
		MaxTokens: 16,
		System:    systemPrompt(q),
		Messages:  []message{{Role: "user", Content: transcript}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("claude API error %d: %s: %w", resp.StatusCode, string(respBody), domain.ErrTransport)
	}

	var result response
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w: %w", domain.ErrTransport, err)
	}
	if len(result.Content) == 0 {
		return domain.TokenUnclear, nil
	}

	token := strings.TrimSpace(strings.ToLower(result.Content[0].Text))
	token = strings.Trim(token, ".,!?;:\"'`*")
	if token == "" {
		return domain.TokenUnclear, nil
	}
	return token, nil
}

func systemPrompt(q domain.Question) string {
	var sb strings.Builder
	sb.WriteString("You grade spoken answers in a quiz. The user message is a speech transcript of the player's answer.\n")
	fmt.Fprintf(&sb, "Question: %s\n", q.Prompt)
	if q.Kind == domain.KindChoice {
		for i, opt := range q.Options {
			fmt.Fprintf(&sb, "%s) %s\n", strings.ToUpper(domain.Letters[i]), opt)
		}
	}
	fmt.Fprintf(&sb, "Valid answers: %s.\n", strings.Join(q.Vocabulary(), ", "))
	sb.WriteString(`Reply with the single valid answer the player meant, in lower case.
Reply "repeat" if the player asks to hear the question again.
Reply "unclear" if the transcript does not pick an answer.
No punctuation, no explanation.`)
	return sb.String()
}

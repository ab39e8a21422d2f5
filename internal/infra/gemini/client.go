package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voice-quiz/internal/domain"
	"voice-quiz/internal/infra/audio"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client interprets recorded answers with Gemini's multimodal generateContent
// endpoint. It never retries; the orchestrator decides what to do on failure.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewClient(apiKey, model string) *Client {
	return NewClientWithURL(apiKey, model, DefaultBaseURL)
}

func NewClientWithURL(apiKey, model, baseURL string) *Client {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
	}
}

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type request struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	MaxOutputTokens int             `json:"maxOutputTokens"`
	Temperature     float64         `json:"temperature"`
	ThinkingConfig  *thinkingConfig `json:"thinkingConfig,omitempty"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

func (c *Client) Ready() error {
	if c.apiKey == "" {
		return fmt.Errorf("gemini API key is not set: %w", domain.ErrConfiguration)
	}
	return nil
}

func (c *Client) Interpret(ctx context.Context, clip []byte, q domain.Question) (string, error) {
	if err := c.Ready(); err != nil {
		return "", err
	}
	if len(clip) == 0 {
		return domain.TokenUnclear, nil
	}

	reqBody := request{
		Contents: []content{
			{
				Role: "user",
				Parts: []part{
					{Text: instruction(q)},
					{InlineData: &inlineData{
						MimeType: audio.DetectMIME(clip),
						Data:     base64.StdEncoding.EncodeToString(clip),
					}},
				},
			},
		},
		GenerationConfig: generationConfig{
			MaxOutputTokens: 16,
			Temperature:     0,
			ThinkingConfig:  c.thinking(),
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w: %w", domain.ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API error %d: %s: %w", resp.StatusCode, string(respBody), domain.ErrTransport)
	}

	var result response
	if err = json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decoding response: %w: %w", domain.ErrTransport, err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("gemini error: %s: %w", result.Error.Message, domain.ErrTransport)
	}
	if len(result.Candidates) == 0 {
		return domain.TokenUnclear, nil
	}
	candidate := result.Candidates[0]
	if len(candidate.Content.Parts) == 0 {
		// A truncated or blocked reply is a service problem, not a silent player.
		switch candidate.FinishReason {
		case "", "STOP":
			return domain.TokenUnclear, nil
		default:
			return "", fmt.Errorf("gemini returned no answer, finish reason %s: %w", candidate.FinishReason, domain.ErrTransport)
		}
	}

	return normalize(candidate.Content.Parts[0].Text), nil
}

// thinking turns off reasoning on 2.5 flash models. Thinking tokens count
// against maxOutputTokens and would leave no room for the answer.
func (c *Client) thinking() *thinkingConfig {
	if strings.HasPrefix(c.model, "gemini-2.5-flash") {
		return &thinkingConfig{ThinkingBudget: 0}
	}
	return nil
}

func instruction(q domain.Question) string {
	var sb strings.Builder
	sb.WriteString("You are listening to a player answer a spoken quiz question.\n")
	fmt.Fprintf(&sb, "Question: %s\n", q.Prompt)

	if q.Kind == domain.KindChoice {
		sb.WriteString("Options:\n")
		for i, opt := range q.Options {
			fmt.Fprintf(&sb, "%s) %s\n", strings.ToUpper(domain.Letters[i]), opt)
		}
	}

	fmt.Fprintf(&sb, "Valid answers: %s.\n", strings.Join(q.Vocabulary(), ", "))
	sb.WriteString(`Reply with exactly one lower-case word from the valid answers that matches what the player said.
If the player says a letter, reply with that letter.
If the player asks to hear the question again, reply "repeat".
If you cannot tell what the player said, reply "unclear".
Reply with the single word only, no punctuation or explanation.`)
	return sb.String()
}

func normalize(text string) string {
	text = strings.TrimSpace(strings.ToLower(text))
	text = strings.Trim(text, ".,!?;:\"'`*")
	return strings.TrimSpace(text)
}

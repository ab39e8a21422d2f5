package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"voice-quiz/internal/domain"
	"voice-quiz/internal/infra/audio"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// WhisperClient transcribes the answer clip; the orchestrator classifies the
// transcript against the question.
type WhisperClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
	language   string
}

func NewWhisperClient(apiKey, model, language string) *WhisperClient {
	return NewWhisperClientWithURL(apiKey, model, language, DefaultBaseURL)
}

func NewWhisperClientWithURL(apiKey, model, language, baseURL string) *WhisperClient {
	if model == "" {
		model = "whisper-1"
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &WhisperClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		language:   language,
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

var fileExtensions = map[string]string{
	"audio/wav":  "wav",
	"audio/ogg":  "ogg",
	"audio/webm": "webm",
	"audio/mpeg": "mp3",
	"audio/mp4":  "m4a",
}

func (c *WhisperClient) Ready() error {
	if c.apiKey == "" {
		return fmt.Errorf("openai API key is not set: %w", domain.ErrConfiguration)
	}
	return nil
}

func (c *WhisperClient) Interpret(ctx context.Context, clip []byte, q domain.Question) (string, error) {
	if err := c.Ready(); err != nil {
		return "", err
	}
	if len(clip) == 0 {
		return domain.TokenUnclear, nil
	}

	text, err := c.Transcribe(ctx, clip, q.Vocabulary())
	if err != nil {
		return "", err
	}

	text = strings.Trim(domain.NormalizeToken(text), ".,!?")
	if text == "" {
		return domain.TokenUnclear, nil
	}
	return text, nil
}

// Transcribe uploads clip and returns the raw transcript. hints bias the
// recognizer toward the expected words.
func (c *WhisperClient) Transcribe(ctx context.Context, clip []byte, hints []string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "answer."+fileExtensions[audio.DetectMIME(clip)])
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err = part.Write(clip); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}
	if err = writer.WriteField("model", c.model); err != nil {
		return "", fmt.Errorf("writing model field: %w", err)
	}
	if c.language != "" {
		if err = writer.WriteField("language", c.language); err != nil {
			return "", fmt.Errorf("writing language field: %w", err)
		}
	}
	if len(hints) > 0 {
		if err = writer.WriteField("prompt", strings.Join(hints, ", ")); err != nil {
			return "", fmt.Errorf("writing prompt field: %w", err)
		}
	}
	if err = writer.Close(); err != nil {
		return "", fmt.Errorf("closing writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("whisper API error %d: %s: %w", resp.StatusCode, string(respBody), domain.ErrTransport)
	}

	var result transcriptionResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w: %w", domain.ErrTransport, err)
	}
	return result.Text, nil
}

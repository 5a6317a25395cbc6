package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"crypto-persona-backend/utilities"
)

const (
	DefaultModel = "nano-banana-pro"

	systemPrompt = "You are an expert AI artist. Generate a high-quality, distinctive image based on the user's prompt. " +
		"Return the image URL in markdown format. Use the provided images as absolute style references to ensure the new " +
		"image belongs to the EXACT SAME character collection (claymorphism, proportions, lighting, colors)."
	referenceSuffix = " The attached images are from the same collection. Mimic their visual style, claymorphic texture, and lighting perfectly."

	maxImageBytes = 32 << 20
)

var (
	ErrMissingAPIKey = errors.New("missing image API key")
	ErrNoImageURL    = errors.New("no image URL found in response")

	markdownURL = regexp.MustCompile(`\(https://[^)]+\)`)
)

// ImageResult is a generated image and the URL it was downloaded from.
type ImageResult struct {
	Data      []byte
	SourceURL string
}

// ImageClient generates one image from a prompt, using optional local files as style
// references.
type ImageClient interface {
	GenerateImage(ctx context.Context, prompt string, referencePaths []string) (ImageResult, error)
}

// ChatImageClient talks to an image model exposed through a chat-completions endpoint.
// The model replies with a markdown image link which is then downloaded.
type ChatImageClient struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// NewChatImageClient returns a client with a bounded HTTP timeout.
func NewChatImageClient(baseURL, apiKey, model string, timeout time.Duration) *ChatImageClient {
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &ChatImageClient{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateImage sends the prompt and downloads the resulting image. Failures are
// returned as-is; there are no retries.
func (c *ChatImageClient) GenerateImage(ctx context.Context, prompt string, referencePaths []string) (ImageResult, error) {
	if c.APIKey == "" {
		return ImageResult{}, ErrMissingAPIKey
	}

	payloadBytes, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent(prompt, referencePaths)},
		},
	})
	if err != nil {
		return ImageResult{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/chat/completions", bytes.NewReader(payloadBytes))
	if err != nil {
		return ImageResult{}, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client().Do(req)
	if err != nil {
		return ImageResult{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ImageResult{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ImageResult{}, fmt.Errorf("API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ImageResult{}, fmt.Errorf("failed to decode response: %w", err)
	}
	content := ""
	if len(parsed.Choices) > 0 {
		content = parsed.Choices[0].Message.Content
	}
	sourceURL, err := ExtractImageURL(content)
	if err != nil {
		return ImageResult{}, err
	}

	data, err := c.download(ctx, sourceURL)
	if err != nil {
		return ImageResult{}, err
	}
	return ImageResult{Data: data, SourceURL: sourceURL}, nil
}

// ExtractImageURL returns the first https URL in markdown link parentheses.
func ExtractImageURL(content string) (string, error) {
	m := markdownURL.FindString(content)
	if m == "" {
		return "", fmt.Errorf("%w: %q", ErrNoImageURL, content)
	}
	return m[1 : len(m)-1], nil
}

func (c *ChatImageClient) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("image download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download failed: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

func (c *ChatImageClient) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// userContent builds the text part plus one data-URL part per readable reference.
func userContent(prompt string, referencePaths []string) []contentPart {
	text := "Generate an image based on this personality description: " + prompt
	parts := []contentPart{{Type: "text"}}
	for _, path := range referencePaths {
		data, err := os.ReadFile(path)
		if err != nil {
			utilities.L().Warn("skipping style reference", zap.String("path", path), zap.Error(err))
			continue
		}
		parts = append(parts, contentPart{
			Type:     "image_url",
			ImageURL: &imageURL{URL: dataURL(path, data)},
		})
	}
	if len(referencePaths) > 0 {
		text += referenceSuffix
	}
	parts[0].Text = text
	return parts
}

func dataURL(path string, data []byte) string {
	mime := "image/jpeg"
	if strings.HasSuffix(strings.ToLower(path), ".png") {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

package gemini

import (
	"context"
	"testing"
	"time"

	"genai-studio/internal/retry"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// --- Mocks ---

type fakeModels struct {
	contentCalls int
	imageCalls   int

	lastModel    string
	lastContents []*genai.Content
	lastConfig   *genai.GenerateContentConfig
	lastPrompt   string
	lastImageCfg *genai.GenerateImagesConfig

	contentFunc func(call int) (*genai.GenerateContentResponse, error)
	imagesFunc  func(call int) (*genai.GenerateImagesResponse, error)
}

func (m *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.contentCalls++
	m.lastModel = model
	m.lastContents = contents
	m.lastConfig = config
	return m.contentFunc(m.contentCalls)
}

func (m *fakeModels) GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	m.imageCalls++
	m.lastModel = model
	m.lastPrompt = prompt
	m.lastImageCfg = config
	return m.imagesFunc(m.imageCalls)
}

// newTestClient 返回使用 fake 的客户端，并记录每次尝试拿到的凭证和退避间隔
func newTestClient(t *testing.T, models *fakeModels) (*Client, *[]string, *[]time.Duration) {
	var keys []string
	var delays []time.Duration

	policy := retry.DefaultPolicy()
	policy.Sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	client, err := NewClient(Config{
		APIKey:         func() string { return "test-key" },
		ImageModelName: "imagen-test",
		EditModelName:  "edit-test",
		ChatModelName:  "chat-test",
		Retry:          policy,
		ModelsFactory: func(ctx context.Context, apiKey string, baseURL string) (Models, error) {
			keys = append(keys, apiKey)
			return models, nil
		},
	})
	require.NoError(t, err)
	return client, &keys, &delays
}

func contentResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: "model", Parts: parts}}},
	}
}

func imagesResponse(images ...*genai.GeneratedImage) *genai.GenerateImagesResponse {
	return &genai.GenerateImagesResponse{GeneratedImages: images}
}

package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"genai-studio/common"
	"genai-studio/internal/domain"
	"genai-studio/internal/retry"
	"genai-studio/internal/utils"

	"google.golang.org/genai"
)

// 默认单次请求超时时间
const defaultGenAITimeout = 60 * time.Second

const (
	qualitySuffix = ", high quality, professional, highly detailed"

	editInstructionFormat = "Edit this image based on the following instruction: %s. Return ONLY the edited image."

	// 对话助手的固定人设
	assistantPersona = "You are the studio assistant of an AI image creation app. " +
		"Be professional, warm and solution-oriented. " +
		"Help the user turn ideas into clear image prompts, suggest suitable aspect ratios and styles, " +
		"and explain how to describe an edit so the result matches what they want. " +
		"Keep answers concise and practical, and ask a short clarifying question when a request is ambiguous."
)

// Client Gemini 客户端实现，本身不保存会话和凭证状态
type Client struct {
	apiKey     APIKeyFunc
	newModels  ModelsFactory
	baseURL    string
	imageModel string
	editModel  string
	chatModel  string
	policy     retry.Policy
	timeout    time.Duration
}

// Config Gemini 客户端配置
type Config struct {
	APIKey  APIKeyFunc // 为空时从 GENAI_API_KEY 环境变量读取
	BaseURL string
	// 生成、编辑、对话使用的模型名称
	ImageModelName string
	EditModelName  string
	ChatModelName  string
	Retry          retry.Policy // MaxAttempts 为 0 时使用 retry.DefaultPolicy
	Timeout        time.Duration
	// 测试时替换远端客户端
	ModelsFactory ModelsFactory
}

// NewClient 创建新的 Gemini 客户端
func NewClient(cfg Config) (*Client, error) {
	if cfg.ImageModelName == "" || cfg.EditModelName == "" || cfg.ChatModelName == "" {
		return nil, fmt.Errorf("image, edit and chat model names are required")
	}

	apiKey := cfg.APIKey
	if apiKey == nil {
		apiKey = EnvAPIKey(common.APIKeyEnv)
	}
	newModels := cfg.ModelsFactory
	if newModels == nil {
		newModels = newGenAIModels
	}
	policy := cfg.Retry
	if policy.MaxAttempts == 0 {
		policy = retry.DefaultPolicy()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultGenAITimeout
	}

	return &Client{
		apiKey:     apiKey,
		newModels:  newModels,
		baseURL:    cfg.BaseURL,
		imageModel: cfg.ImageModelName,
		editModel:  cfg.EditModelName,
		chatModel:  cfg.ChatModelName,
		policy:     policy,
		timeout:    timeout,
	}, nil
}

// EnvAPIKey 每次调用都重新读取环境变量，凭证轮换无需重启
func EnvAPIKey(name string) APIKeyFunc {
	return func() string {
		return strings.TrimSpace(os.Getenv(name))
	}
}

func newGenAIModels(ctx context.Context, apiKey string, baseURL string) (Models, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client.Models, nil
}

// call 在重试策略下执行一次远端调用，每次尝试都重新读取凭证并单独计时
func call[T any](ctx context.Context, c *Client, fn func(ctx context.Context, models Models) (T, error)) (T, error) {
	return retry.Execute(ctx, c.policy, func(ctx context.Context) (T, error) {
		var zero T

		apiKey := c.apiKey()
		if apiKey == "" {
			return zero, ErrMissingAPIKey
		}

		models, err := c.newModels(ctx, apiKey, c.baseURL)
		if err != nil {
			return zero, err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		result, err := fn(attemptCtx, models)
		return result, classifyError(err)
	})
}

// GenerateImage 文生图：固定生成一张 PNG
func (c *Client) GenerateImage(ctx context.Context, prompt string, aspectRatio domain.AspectRatio) (*domain.ImagePayload, error) {
	common.WithFields(map[string]interface{}{
		"model":        c.imageModel,
		"prompt":       utils.TruncateForLog(prompt, 200),
		"aspect_ratio": aspectRatio,
	}).Debug("Starting image generation")

	config := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    string(aspectRatio),
		OutputMIMEType: domain.MimeTypePNG,
	}

	resp, err := call(ctx, c, func(ctx context.Context, models Models) (*genai.GenerateImagesResponse, error) {
		return models.GenerateImages(ctx, c.imageModel, prompt+qualitySuffix, config)
	})
	if err != nil {
		common.WithError(err).WithFields(map[string]interface{}{
			"model":  c.imageModel,
			"prompt": utils.TruncateForLog(prompt, 200),
		}).Error("Failed to generate image from Gemini API")
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}

	if resp == nil || len(resp.GeneratedImages) == 0 {
		common.WithField("model", c.imageModel).Warn("No image in generation response")
		return nil, nil
	}

	generated := resp.GeneratedImages[0]
	if generated == nil || generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
		fields := map[string]interface{}{"model": c.imageModel}
		if generated != nil && generated.RAIFilteredReason != "" {
			fields["filtered_reason"] = generated.RAIFilteredReason
		}
		common.WithFields(fields).Warn("Generated image carries no data")
		return nil, nil
	}

	common.WithFields(map[string]interface{}{
		"model": c.imageModel,
		"size":  len(generated.Image.ImageBytes),
	}).Debug("Image generated successfully")

	return &domain.ImagePayload{Data: generated.Image.ImageBytes, MIMEType: domain.MimeTypePNG}, nil
}

// EditImage 图片编辑：把原图和编辑指令一起发送，取响应中第一张内联图片
func (c *Client) EditImage(ctx context.Context, prompt string, image *domain.ImagePayload) (*domain.ImagePayload, error) {
	if image == nil || len(image.Data) == 0 {
		return nil, fmt.Errorf("source image is required")
	}

	common.WithFields(map[string]interface{}{
		"model":     c.editModel,
		"prompt":    utils.TruncateForLog(prompt, 200),
		"mime_type": image.MIMEType,
		"size":      len(image.Data),
	}).Debug("Starting image editing")

	contents := []*genai.Content{{
		Role: string(genai.RoleUser),
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{Data: image.Data, MIMEType: image.MIMEType}},
			{Text: fmt.Sprintf(editInstructionFormat, prompt)},
		},
	}}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}

	resp, err := call(ctx, c, func(ctx context.Context, models Models) (*genai.GenerateContentResponse, error) {
		return models.GenerateContent(ctx, c.editModel, contents, config)
	})
	if err != nil {
		common.WithError(err).WithFields(map[string]interface{}{
			"model":  c.editModel,
			"prompt": utils.TruncateForLog(prompt, 200),
		}).Error("Failed to edit image from Gemini API")
		return nil, fmt.Errorf("failed to edit image: %w", err)
	}

	for _, part := range firstCandidateParts(resp) {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			common.WithFields(map[string]interface{}{
				"model":         c.editModel,
				"response_mime": part.InlineData.MIMEType,
				"size":          len(part.InlineData.Data),
			}).Debug("Image edited successfully")
			return &domain.ImagePayload{Data: part.InlineData.Data, MIMEType: domain.MimeTypePNG}, nil
		}
	}

	common.WithField("model", c.editModel).Warn("No edited image data found in Gemini response")
	return nil, nil
}

// SendChatMessage 对话：每次都用调用方给出的历史重建上下文
func (c *Client) SendChatMessage(ctx context.Context, history []domain.ChatTurn, message string) (string, bool, error) {
	common.WithFields(map[string]interface{}{
		"model":   c.chatModel,
		"history": len(history),
	}).Debug("Sending chat message")

	contents := buildChatContents(history, message)
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: assistantPersona}}},
	}

	resp, err := call(ctx, c, func(ctx context.Context, models Models) (*genai.GenerateContentResponse, error) {
		return models.GenerateContent(ctx, c.chatModel, contents, config)
	})
	if err != nil {
		common.WithError(err).WithField("model", c.chatModel).Error("Failed to get chat reply from Gemini API")
		return "", false, fmt.Errorf("failed to send chat message: %w", err)
	}

	reply := responseText(resp)
	if reply == "" {
		common.WithField("model", c.chatModel).Warn("Chat response carries no text")
		return "", false, nil
	}
	return reply, true, nil
}

func buildChatContents(history []domain.ChatTurn, message string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		contents = append(contents, &genai.Content{
			Role:  chatRole(turn.Role),
			Parts: []*genai.Part{{Text: turn.Text}},
		})
	}
	return append(contents, &genai.Content{
		Role:  string(genai.RoleUser),
		Parts: []*genai.Part{{Text: message}},
	})
}

// chatRole Gemini 用 "model" 表示助手
func chatRole(role domain.Role) string {
	if role == domain.RoleAssistant {
		return string(genai.RoleModel)
	}
	return string(genai.RoleUser)
}

func firstCandidateParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return nil
	}
	return candidate.Content.Parts
}

func responseText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, part := range firstCandidateParts(resp) {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

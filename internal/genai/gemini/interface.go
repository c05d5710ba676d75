package gemini

import (
	"context"

	"genai-studio/internal/domain"

	"google.golang.org/genai"
)

// StudioIface 界面层使用的三种远端调用。
// 图片结果为 nil 且 error 为 nil 表示远端没有产出图片；
// 对话结果 ok 为 false 表示远端没有返回文本。
type StudioIface interface {
	GenerateImage(ctx context.Context, prompt string, aspectRatio domain.AspectRatio) (*domain.ImagePayload, error)
	EditImage(ctx context.Context, prompt string, image *domain.ImagePayload) (*domain.ImagePayload, error)
	SendChatMessage(ctx context.Context, history []domain.ChatTurn, message string) (string, bool, error)
}

// Models 远端模型接口，*genai.Models 实现了它
type Models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// ModelsFactory 用本次调用读取到的凭证创建远端模型客户端
type ModelsFactory func(ctx context.Context, apiKey string, baseURL string) (Models, error)

// APIKeyFunc 在每次尝试时被调用，返回当前凭证
type APIKeyFunc func() string

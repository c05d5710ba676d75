package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"genai-studio/common"
	"genai-studio/internal/domain"
	"genai-studio/internal/genai/gemini"
	"genai-studio/internal/output"
	"genai-studio/internal/utils"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	noImageGeneratedMessage = "The model did not produce an image for this prompt. Try rephrasing it or choosing another aspect ratio."
	noImageEditedMessage    = "The model did not return an edited image. Try a more specific instruction."
	noReplyMessage          = "The assistant did not return a reply. Please try again."
)

// studioTools MCP 工具的处理器集合
type studioTools struct {
	studio    gemini.StudioIface
	formatter *output.Formatter
}

// RegisterStudioTools 注册图片生成、图片编辑和对话三个 MCP tools
func RegisterStudioTools(s *server.MCPServer, studio gemini.StudioIface, formatter *output.Formatter) error {
	if studio == nil || formatter == nil {
		return fmt.Errorf("studio client and formatter are required")
	}
	h := &studioTools{studio: studio, formatter: formatter}

	ratios := make([]string, 0, len(domain.AspectRatios()))
	for _, r := range domain.AspectRatios() {
		ratios = append(ratios, string(r))
	}

	s.AddTool(mcp.NewTool(
		"generate_image",
		mcp.WithDescription("Generate an image from a text prompt. Returns the image as a data URI or a URL."),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("Text prompt describing the image to generate"),
		),
		mcp.WithString("aspect_ratio",
			mcp.Description("Aspect ratio of the generated image"),
			mcp.Enum(ratios...),
			mcp.DefaultString(string(domain.AspectSquare)),
		),
	), h.generateImage)

	s.AddTool(mcp.NewTool(
		"edit_image",
		mcp.WithDescription("Edit an image according to an instruction. Takes a data URI or http(s) URL and returns the edited image."),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("Instruction describing how to edit the image"),
		),
		mcp.WithString("image",
			mcp.Required(),
			mcp.Description("Source image as a data URI or http(s) URL"),
		),
	), h.editImage)

	s.AddTool(mcp.NewTool(
		"chat",
		mcp.WithDescription("Talk to the studio assistant. The caller keeps the transcript and sends it with every message."),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("New user message"),
		),
		mcp.WithString("history",
			mcp.Description(`Prior turns as a JSON array, e.g. [{"role":"user","text":"hi"},{"role":"assistant","text":"hello"}]`),
		),
	), h.chat)

	return nil
}

func (h *studioTools) generateImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil || strings.TrimSpace(prompt) == "" {
		return mcp.NewToolResultError("prompt parameter is required"), nil
	}
	aspectRatio := domain.AspectRatio(req.GetString("aspect_ratio", string(domain.AspectSquare)))

	img, err := h.studio.GenerateImage(ctx, prompt, aspectRatio)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to generate image: %v", err)), nil
	}
	if img == nil {
		return mcp.NewToolResultError(noImageGeneratedMessage), nil
	}

	return h.imageResult(ctx, "Generated image", img)
}

func (h *studioTools) editImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil || strings.TrimSpace(prompt) == "" {
		return mcp.NewToolResultError("prompt parameter is required"), nil
	}
	ref, err := req.RequireString("image")
	if err != nil {
		return mcp.NewToolResultError("image parameter is required"), nil
	}

	source, err := utils.LoadImage(ctx, ref)
	if err != nil {
		common.WithError(err).WithField("image", utils.TruncateForLog(ref, 80)).Warn("Failed to load source image")
		return mcp.NewToolResultError(fmt.Sprintf("invalid image: %v", err)), nil
	}

	img, err := h.studio.EditImage(ctx, prompt, source)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to edit image: %v", err)), nil
	}
	if img == nil {
		return mcp.NewToolResultError(noImageEditedMessage), nil
	}

	return h.imageResult(ctx, "Edited image", img)
}

func (h *studioTools) chat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := req.RequireString("message")
	if err != nil || strings.TrimSpace(message) == "" {
		return mcp.NewToolResultError("message parameter is required"), nil
	}

	history, err := parseHistory(req.GetString("history", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	reply, ok, err := h.studio.SendChatMessage(ctx, history, message)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to send chat message: %v", err)), nil
	}
	if !ok {
		return mcp.NewToolResultError(noReplyMessage), nil
	}
	return mcp.NewToolResultText(reply), nil
}

func (h *studioTools) imageResult(ctx context.Context, label string, img *domain.ImagePayload) (*mcp.CallToolResult, error) {
	res, err := h.formatter.Format(ctx, img)
	if err != nil {
		common.WithError(err).Error("Failed to deliver image")
		return mcp.NewToolResultError(fmt.Sprintf("failed to deliver image: %v", err)), nil
	}

	if res.Inline {
		return mcp.NewToolResultImage(label, base64.StdEncoding.EncodeToString(img.Data), img.MIMEType), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: %s", label, res.Ref)), nil
}

// parseHistory 解析 JSON 格式的对话记录
func parseHistory(raw string) ([]domain.ChatTurn, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var history []domain.ChatTurn
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, fmt.Errorf("history must be a JSON array of {role, text}: %v", err)
	}
	for i, turn := range history {
		if turn.Role != domain.RoleUser && turn.Role != domain.RoleAssistant {
			return nil, fmt.Errorf("history[%d]: role must be %q or %q", i, domain.RoleUser, domain.RoleAssistant)
		}
	}
	return history, nil
}

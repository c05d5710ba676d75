package main

import (
	"genai-studio/common"
	"genai-studio/internal/genai/gemini"
	"genai-studio/internal/output"
	"genai-studio/internal/tools"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

func main() {
	// 加载配置
	config, err := common.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// 打印配置信息（隐藏敏感信息）
	common.WithFields(map[string]interface{}{
		"base_url":     config.GenAIBaseURL,
		"image_model":  config.GenAIImageModelName,
		"edit_model":   config.GenAIEditModelName,
		"chat_model":   config.GenAIChatModelName,
		"api_key":      maskAPIKey(config.GenAIAPIKey),
		"max_attempts": config.RetryMaxAttempts,
		"image_format": config.GenAIImageFormat,
	}).Info("Server starting...")

	// 创建 Gemini 客户端
	studio, err := gemini.NewClientFromConfig(config)
	if err != nil {
		logrus.Fatalf("Failed to create Gemini client: %v", err)
	}

	formatter, err := output.NewFormatterFromConfig(config)
	if err != nil {
		logrus.Fatalf("Failed to create image formatter: %v", err)
	}

	// 创建 MCP 服务器
	s := server.NewMCPServer(
		"GenAI Studio MCP Server",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	if err := tools.RegisterStudioTools(s, studio, formatter); err != nil {
		logrus.Fatalf("Failed to register studio tools: %v", err)
	}

	// 启动 stdio 服务器
	if err := server.ServeStdio(s); err != nil {
		logrus.Fatalf("Server error: %v", err)
	}
}

// maskAPIKey 隐藏 API Key 的敏感部分
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// APIKeyEnv 远端服务凭证所在的环境变量，每次调用时重新读取
const APIKeyEnv = "GENAI_API_KEY"

// Config 应用配置结构
type Config struct {
	GenAIBaseURL string
	GenAIAPIKey  string
	// 生成、编辑、对话分别使用的模型名称
	GenAIImageModelName string
	GenAIEditModelName  string
	GenAIChatModelName  string
	// 单次请求超时时间（秒）
	GenAITimeoutSeconds int

	// 重试策略
	RetryMaxAttempts    int
	RetryInitialDelayMS int
	RetryMultiplier     float64
	RetryOnForbidden    bool

	// 图片输出格式: base64 或 url
	GenAIImageFormat string

	// OSS 配置
	OSSEndpoint  string
	OSSRegion    string
	OSSAccessKey string
	OSSSecretKey string
	OSSBucket    string
	// 大于 0 时返回带签名的临时 URL
	OSSURLExpiresSeconds int64

	// 日志配置
	LogLevel  string
	LogFormat string
	LogOutput string
	LogFile   string
}

// LoadConfig 从 .env 文件和环境变量加载配置，并初始化日志
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: .env file not found, using environment variables")
	}

	config := &Config{
		GenAIBaseURL:        getEnv("GENAI_BASE_URL", ""),
		GenAIAPIKey:         getEnv(APIKeyEnv, ""),
		GenAIImageModelName: getEnv("GENAI_IMAGE_MODEL_NAME", "imagen-4.0-generate-001"),
		GenAIEditModelName:  getEnv("GENAI_EDIT_MODEL_NAME", "gemini-2.5-flash-image"),
		GenAIChatModelName:  getEnv("GENAI_CHAT_MODEL_NAME", "gemini-2.5-flash"),
		GenAITimeoutSeconds: getEnvInt("GENAI_TIMEOUT_SECONDS", 60),
		RetryMaxAttempts:    getEnvInt("GENAI_RETRY_MAX_ATTEMPTS", 3),
		RetryInitialDelayMS: getEnvInt("GENAI_RETRY_INITIAL_DELAY_MS", 1000),
		RetryMultiplier:     getEnvFloat("GENAI_RETRY_MULTIPLIER", 2),
		RetryOnForbidden:    getEnvBool("GENAI_RETRY_ON_FORBIDDEN", true),
		GenAIImageFormat:    getEnv("GENAI_IMAGE_FORMAT", "base64"),
		// OSS 配置
		OSSEndpoint:          getEnv("OSS_ENDPOINT", ""),
		OSSRegion:            getEnv("OSS_REGION", "us-east-1"),
		OSSAccessKey:         getEnv("OSS_ACCESS_KEY", ""),
		OSSSecretKey:         getEnv("OSS_SECRET_KEY", ""),
		OSSBucket:            getEnv("OSS_BUCKET", ""),
		OSSURLExpiresSeconds: int64(getEnvInt("OSS_URL_EXPIRES_SECONDS", 0)),
		// 日志配置
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogOutput: getEnv("LOG_OUTPUT", "stderr"),
		LogFile:   getEnv("LOG_FILE", ""),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	logConfig := &LogConfig{
		Level:    config.LogLevel,
		Format:   config.LogFormat,
		Output:   config.LogOutput,
		FilePath: config.LogFile,
	}
	if err := InitLogger(logConfig); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return config, nil
}

// Validate 校验必需的配置项
func (c *Config) Validate() error {
	if c.GenAIAPIKey == "" {
		return fmt.Errorf("%s is required", APIKeyEnv)
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("GENAI_RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.RetryMaxAttempts)
	}
	if c.RetryMultiplier < 1 {
		return fmt.Errorf("GENAI_RETRY_MULTIPLIER must be at least 1, got %g", c.RetryMultiplier)
	}

	switch strings.ToLower(c.GenAIImageFormat) {
	case "base64":
	case "url":
		if c.OSSBucket == "" {
			return fmt.Errorf("OSS_BUCKET is required when GENAI_IMAGE_FORMAT=url")
		}
	default:
		return fmt.Errorf("unsupported GENAI_IMAGE_FORMAT: %s", c.GenAIImageFormat)
	}
	return nil
}

// OSSUploadEnabled 是否需要把结果图片上传到 OSS
func (c *Config) OSSUploadEnabled() bool {
	return strings.EqualFold(c.GenAIImageFormat, "url")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes" || value == "on"
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return defaultValue
}

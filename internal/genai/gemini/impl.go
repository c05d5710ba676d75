package gemini

import (
	"time"

	"genai-studio/common"
	"genai-studio/internal/retry"
)

// NewClientFromConfig 从应用配置创建 Gemini 客户端
func NewClientFromConfig(cfg *common.Config) (*Client, error) {
	policy := retry.DefaultPolicy()
	policy.MaxAttempts = cfg.RetryMaxAttempts
	policy.InitialDelay = time.Duration(cfg.RetryInitialDelayMS) * time.Millisecond
	policy.Multiplier = cfg.RetryMultiplier
	policy.RetryForbidden = cfg.RetryOnForbidden

	return NewClient(Config{
		APIKey:         EnvAPIKey(common.APIKeyEnv),
		BaseURL:        cfg.GenAIBaseURL,
		ImageModelName: cfg.GenAIImageModelName,
		EditModelName:  cfg.GenAIEditModelName,
		ChatModelName:  cfg.GenAIChatModelName,
		Retry:          policy,
		Timeout:        time.Duration(cfg.GenAITimeoutSeconds) * time.Second,
	})
}

package gemini

import (
	"errors"
	"net/http"
	"strings"

	"genai-studio/internal/retry"

	"google.golang.org/genai"
)

// ErrMissingAPIKey 调用时环境中没有凭证
var ErrMissingAPIKey = errors.New("GenAI API key is not set")

// 远端在凭证尚未生效等情况下返回的提示
const entityNotFoundMessage = "requested entity was not found"

// classifyError 把 SDK 返回的错误转换为带分类的 retry.Error
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	apiErr, ok := asAPIError(err)
	if !ok {
		if strings.Contains(strings.ToLower(err.Error()), entityNotFoundMessage) {
			return retry.Classify(retry.KindNotFound, err)
		}
		return retry.Classify(retry.KindOther, err)
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED":
		return retry.Classify(retry.KindRateLimited, err)
	case apiErr.Code == http.StatusForbidden || apiErr.Status == "PERMISSION_DENIED":
		return retry.Classify(retry.KindForbidden, err)
	case apiErr.Code == http.StatusNotFound || apiErr.Status == "NOT_FOUND",
		strings.Contains(strings.ToLower(apiErr.Message), entityNotFoundMessage):
		return retry.Classify(retry.KindNotFound, err)
	default:
		return retry.Classify(retry.KindOther, err)
	}
}

func asAPIError(err error) (genai.APIError, bool) {
	var value genai.APIError
	if errors.As(err, &value) {
		return value, true
	}
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	return genai.APIError{}, false
}

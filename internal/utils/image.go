package utils

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"genai-studio/internal/domain"

	"github.com/google/uuid"
)

// 下载图片的大小上限（20MB，与 Gemini 内联数据上限一致）
const maxImageBytes = 20 << 20

var downloadClient = &http.Client{
	Timeout: 30 * time.Second,
}

// LoadImage 读取界面层提交的图片，支持 data URI 和 http(s) URL
func LoadImage(ctx context.Context, ref string) (*domain.ImagePayload, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case strings.HasPrefix(ref, "data:"):
		return domain.ParseDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		data, mimeType, err := DownloadImageFromURL(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("failed to download image: %w", err)
		}
		return &domain.ImagePayload{Data: data, MIMEType: mimeType}, nil
	default:
		return nil, fmt.Errorf("image must be a data URI or an http(s) URL")
	}
}

// DownloadImageFromURL 从 URL 下载图片，返回图片数据和 MIME 类型
func DownloadImageFromURL(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := downloadClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(imageData) > maxImageBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}

	mimeType := mediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = mediaType(http.DetectContentType(imageData))
	}
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = InferMimeTypeFromURL(url)
	}

	return imageData, mimeType, nil
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

// InferMimeTypeFromURL 从 URL 扩展名推断 MIME 类型，默认 jpeg
func InferMimeTypeFromURL(url string) string {
	lower := strings.ToLower(url)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// GenerateObjectKey 生成对象存储路径：images/yyyy-MM-dd/{uuid}_{timestamp}.ext
func GenerateObjectKey(mimeType string, now time.Time) string {
	return fmt.Sprintf("images/%s/%s_%d%s",
		now.Format("2006-01-02"), uuid.New().String(), now.Unix(), GetExtensionFromMimeType(mimeType))
}

// GetExtensionFromMimeType 根据 MIME 类型获取文件扩展名（不区分大小写）
func GetExtensionFromMimeType(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	default:
		return ".png"
	}
}

// TruncateForLog 截断长字符串用于日志，避免打印过长内容（如 base64）
func TruncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

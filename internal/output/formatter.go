package output

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"genai-studio/common"
	"genai-studio/internal/domain"
	"genai-studio/internal/oss"
	"genai-studio/internal/utils"
)

const (
	FormatBase64 = "base64"
	FormatURL    = "url"
)

// Result 交付给界面层的图片
type Result struct {
	// Ref 是 data URI 或对象存储 URL
	Ref      string
	MIMEType string
	// Inline 为 true 时 Ref 是 data URI
	Inline bool
}

// Formatter 按配置的输出格式交付图片
type Formatter struct {
	format       string
	ossClient    oss.OSSIface
	bucket       string
	urlExpiresIn int64
	now          func() time.Time
}

// NewFormatter 创建 Formatter；format 为 url 时必须提供 OSS 客户端和存储桶
func NewFormatter(format string, ossClient oss.OSSIface, bucket string, urlExpiresIn int64) (*Formatter, error) {
	format = strings.ToLower(format)
	if format == "" {
		format = FormatBase64
	}

	switch format {
	case FormatBase64:
	case FormatURL:
		if ossClient == nil || bucket == "" {
			return nil, fmt.Errorf("OSS is not configured but image format is set to 'url'")
		}
	default:
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}

	return &Formatter{
		format:       format,
		ossClient:    ossClient,
		bucket:       bucket,
		urlExpiresIn: urlExpiresIn,
		now:          time.Now,
	}, nil
}

// NewFormatterFromConfig 从应用配置创建 Formatter
func NewFormatterFromConfig(cfg *common.Config) (*Formatter, error) {
	var ossClient oss.OSSIface
	if cfg.OSSUploadEnabled() {
		client, err := oss.NewOSSClientFromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create OSS client: %w", err)
		}
		ossClient = client
	}
	return NewFormatter(cfg.GenAIImageFormat, ossClient, cfg.OSSBucket, cfg.OSSURLExpiresSeconds)
}

// Format 把图片转换为交付形式
func (f *Formatter) Format(ctx context.Context, img *domain.ImagePayload) (*Result, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, fmt.Errorf("no image to format")
	}

	if f.format == FormatBase64 {
		return &Result{Ref: img.DataURI(), MIMEType: img.MIMEType, Inline: true}, nil
	}

	key := utils.GenerateObjectKey(img.MIMEType, f.now())
	if _, err := f.ossClient.UploadFile(ctx, f.bucket, key, bytes.NewReader(img.Data), img.MIMEType); err != nil {
		return nil, fmt.Errorf("failed to upload image to OSS: %w", err)
	}

	url := f.ossClient.ObjectURL(f.bucket, key)
	if f.urlExpiresIn > 0 {
		signed, err := f.ossClient.GetSignedURL(ctx, f.bucket, key, f.urlExpiresIn)
		if err != nil {
			return nil, err
		}
		url = signed
	}

	common.WithFields(map[string]interface{}{
		"bucket": f.bucket,
		"key":    key,
		"signed": f.urlExpiresIn > 0,
	}).Info("Image published to OSS")

	return &Result{Ref: url, MIMEType: img.MIMEType}, nil
}

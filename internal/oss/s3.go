package oss

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"genai-studio/common"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const uploadTimeout = 60 * time.Second

// S3Client S3 兼容的 OSS 客户端实现
type S3Client struct {
	client     *s3.Client
	presign    *s3.PresignClient
	httpClient *http.Client
	endpoint   string // 不含协议的主机名
	region     string
}

// S3Config S3 客户端配置
type S3Config struct {
	Endpoint  string // 例如 s3.amazonaws.com 或 oss-cn-hangzhou.aliyuncs.com，可带 https:// 前缀
	Region    string
	AccessKey string // 为空时使用 AWS 默认凭证链
	SecretKey string
}

// NewS3Client 创建新的 S3 客户端
func NewS3Client(cfg S3Config) (*S3Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := strings.TrimSuffix(strings.TrimPrefix(cfg.Endpoint, "https://"), "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String("https://" + endpoint)
		}
	})

	return &S3Client{
		client:     client,
		presign:    s3.NewPresignClient(client),
		httpClient: &http.Client{Timeout: uploadTimeout},
		endpoint:   endpoint,
		region:     cfg.Region,
	}, nil
}

// UploadFile 上传文件到 OSS
func (c *S3Client) UploadFile(ctx context.Context, bucket, key string, reader io.Reader, contentType string) (string, error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	fields := map[string]interface{}{
		"bucket":       bucket,
		"key":          key,
		"content_type": contentType,
		"size":         len(body),
	}
	common.WithFields(fields).Debug("Starting file upload to OSS")

	// 阿里云 OSS 不支持 SDK PutObject 使用的 aws-chunked 编码，改用预签名 PUT
	if strings.Contains(c.endpoint, ".aliyuncs.com") {
		err = c.presignedPut(ctx, bucket, key, body, contentType)
	} else {
		_, err = c.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String(contentType),
		})
	}
	if err != nil {
		common.WithError(err).WithFields(fields).Error("Failed to upload file to OSS")
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	common.WithFields(fields).Info("File uploaded to OSS successfully")
	return fmt.Sprintf("%s/%s", bucket, key), nil
}

func (c *S3Client) presignedPut(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	presigned, err := c.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to presign PUT URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, presigned.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	for k, values := range presigned.SignedHeader {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("presigned PUT failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("presigned PUT returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// GetSignedURL 获取文件的带签名 URL
func (c *S3Client) GetSignedURL(ctx context.Context, bucket, key string, expiresIn int64) (string, error) {
	request, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = time.Duration(expiresIn) * time.Second
	})
	if err != nil {
		common.WithError(err).WithFields(map[string]interface{}{
			"bucket": bucket,
			"key":    key,
		}).Error("Failed to generate signed URL")
		return "", fmt.Errorf("failed to presign URL: %w", err)
	}
	return request.URL, nil
}

// ObjectURL 构造对象的公开 URL（不带签名）
func (c *S3Client) ObjectURL(bucket, key string) string {
	if c.endpoint != "" {
		return fmt.Sprintf("https://%s.%s/%s", bucket, c.endpoint, key)
	}
	if c.region != "" {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, c.region, key)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, key)
}

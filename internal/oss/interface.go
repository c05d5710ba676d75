package oss

import (
	"context"
	"io"
)

// OSSIface 对象存储接口，用于发布生成的图片
type OSSIface interface {
	// UploadFile 上传文件，返回 bucket/key 形式的路径
	UploadFile(ctx context.Context, bucket, key string, reader io.Reader, contentType string) (string, error)

	// GetSignedURL 获取带签名的临时访问 URL，expiresIn 单位为秒
	GetSignedURL(ctx context.Context, bucket, key string, expiresIn int64) (string, error)

	// ObjectURL 返回对象的公开访问 URL（不带签名）
	ObjectURL(bucket, key string) string
}

package oss

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Client_ObjectURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		want string
	}{
		{"custom endpoint", S3Config{Endpoint: "oss-cn-beijing.aliyuncs.com", Region: "cn-beijing"}, "https://images.oss-cn-beijing.aliyuncs.com/a/b.png"},
		{"endpoint with scheme", S3Config{Endpoint: "https://minio.example.com/", Region: "us-east-1"}, "https://images.minio.example.com/a/b.png"},
		{"regional", S3Config{Region: "eu-west-1"}, "https://images.s3.eu-west-1.amazonaws.com/a/b.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.AccessKey = "AKIDEXAMPLE"
			tt.cfg.SecretKey = "secret"
			c, err := NewS3Client(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.ObjectURL("images", "a/b.png"))
		})
	}
}

func TestS3Client_GetSignedURL(t *testing.T) {
	c, err := NewS3Client(S3Config{Region: "eu-west-1", AccessKey: "AKIDEXAMPLE", SecretKey: "secret"})
	require.NoError(t, err)

	url, err := c.GetSignedURL(context.Background(), "images", "a/b.png", 600)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://images.s3.eu-west-1.amazonaws.com/a/b.png?"), url)
	assert.Contains(t, url, "X-Amz-Expires=600")
	assert.Contains(t, url, "X-Amz-Signature=")
}

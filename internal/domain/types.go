package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Role 对话轮次的发言方
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn 对话记录中的一轮，创建后不可修改，只能在记录末尾追加新的轮次
type ChatTurn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// AspectRatio 图片宽高比，原样透传给远端服务，不做校验
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
	AspectStandard  AspectRatio = "4:3"
	AspectTall      AspectRatio = "3:4"
)

// AspectRatios 返回界面层可供选择的宽高比
func AspectRatios() []AspectRatio {
	return []AspectRatio{AspectSquare, AspectLandscape, AspectPortrait, AspectStandard, AspectTall}
}

// MimeTypePNG 生成和编辑结果统一使用的 MIME 类型
const MimeTypePNG = "image/png"

// ImagePayload 图片二进制数据及其 MIME 类型
type ImagePayload struct {
	Data     []byte
	MIMEType string
}

// DataURI 编码为 data:<mime>;base64,<data> 形式
func (p *ImagePayload) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", p.MIMEType, base64.StdEncoding.EncodeToString(p.Data))
}

// ParseDataURI 解析 base64 编码的 data URI
func ParseDataURI(uri string) (*ImagePayload, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, fmt.Errorf("not a data URI")
	}

	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("invalid data URI format")
	}

	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return nil, fmt.Errorf("data URI is not base64 encoded")
	}
	if mimeType == "" {
		return nil, fmt.Errorf("data URI has no MIME type")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 data: %w", err)
	}

	return &ImagePayload{Data: data, MIMEType: mimeType}, nil
}

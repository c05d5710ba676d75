package retry

import (
	"errors"
	"fmt"
)

// ErrRetriesExhausted 所有尝试均因可重试错误失败
var ErrRetriesExhausted = errors.New("maximum retry attempts reached")

// Kind 传输层给出的错误分类
type Kind int

const (
	KindOther Kind = iota
	KindRateLimited
	KindForbidden
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	default:
		return "other"
	}
}

// Error 携带分类的远端错误
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify 给错误打上分类标签，nil 保持为 nil
func Classify(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf 返回错误链上的分类，未分类的错误视为 KindOther
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

package storage

import (
	"context"
	"errors"
	"unicode/utf8"
)

var (
	// ErrUnavailable 存储不可用（被禁用或无法访问）
	ErrUnavailable = errors.New("storage unavailable")
	// ErrQuotaExceeded 写入超出存储容量
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Backend 键值存储后端
// 对应浏览器的 localStorage / sessionStorage 能力集合
type Backend interface {
	// Get 读取键值，键不存在时 ok 为 false
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set 写入键值
	Set(ctx context.Context, key, value string) error
	// Remove 删除键，键不存在时不报错
	Remove(ctx context.Context, key string) error
	// Keys 列出全部键
	Keys(ctx context.Context) ([]string, error)
}

// UTF16Len 按 UTF-16 编码单元计算字符串长度
func UTF16Len(s string) int {
	n := 0
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if r >= 0x10000 {
			n += 2
			continue
		}
		n++
	}
	return n
}

// ApproxBytes 估算字符串在浏览器存储中占用的字节数（每字符 2 字节）
func ApproxBytes(s string) int64 {
	return int64(UTF16Len(s)) * 2
}

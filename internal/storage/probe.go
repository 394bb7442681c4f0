package storage

import (
	"context"
	"errors"

	"github.com/pizzaria-cajazeiras/internal/constants"
)

// Available 通过一次写入+删除探测后端是否可用
// 容量已满但仍有数据时视为可用，读取仍然有效，写入会单独失败
func Available(ctx context.Context, backend Backend) bool {
	if backend == nil {
		return false
	}
	if err := backend.Set(ctx, constants.StorageProbeKey, constants.StorageProbeKey); err != nil {
		if !errors.Is(err, ErrQuotaExceeded) {
			return false
		}
		keys, keysErr := backend.Keys(ctx)
		return keysErr == nil && len(keys) > 0
	}
	if err := backend.Remove(ctx, constants.StorageProbeKey); err != nil {
		return false
	}
	return true
}

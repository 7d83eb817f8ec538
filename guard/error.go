package guard

import (
	"errors"
	"fmt"
)

// ErrConsumed 表示 Guard 已经离开存活状态：载荷已交给回调，或已被 Cancel 取走。
//
// 示例:
//
//	if err := g.Close(); errors.Is(err, guard.ErrConsumed) {
//	    // 回调已经执行过
//	}
var ErrConsumed = errors.New("dropguard.guard: value already consumed")

// NewErrConsumed 创建一个包含操作名的 ErrConsumed 错误。
//
// 返回的错误可以通过 errors.Is(err, ErrConsumed) 进行判断。
func NewErrConsumed(op string) error {
	return fmt.Errorf("%s on consumed guard: %w", op, ErrConsumed)
}

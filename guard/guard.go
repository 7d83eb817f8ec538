package guard

import (
	"io"
	"sync/atomic"
)

// Guard 的生命周期状态。
const (
	stateAlive      int32 = iota // 载荷可访问，回调尚未执行
	stateFinalizing              // 回调正在执行
	stateConsumed                // 回调已执行完毕，或载荷已被 Cancel 取走
)

var _ io.Closer = (*Guard[struct{}])(nil)

// slot 保存终结回调，byValue 与 byRef 至多一个非 nil。
//
// slot 只能被 take 取出一次，取出后原位置为空。
type slot[T any] struct {
	byValue Callback[T]
	byRef   RefCallback[T]
}

func (s *slot[T]) take() slot[T] {
	taken := *s
	*s = slot[T]{}
	return taken
}

// Guard 持有一个载荷和一个终结回调，在 Close 时把载荷的最终状态交给回调，且回调至多执行一次。
//
// Guard 本身不加锁：
//   - 载荷的并发读写安全性与 T 完全一致，Guard 不额外增加也不额外承诺
//   - 只有状态切换（Close / Cancel）是原子的，多个 goroutine 同时调用时只有一个生效
//
// Guard 必须通过指针使用，复制 Guard 会复制回调，go vet 会对此报错。
//
// 类型参数:
//   - T: 载荷类型
type Guard[T any] struct {
	value T            // value 是被守护的载荷
	fn    slot[T]      // fn 是终结回调，离开存活状态后为空
	state atomic.Int32 // state 是当前生命周期状态
}

// New 创建一个 Guard，接管 value 和按值接收载荷的回调 fn。
//
// 构造不会失败，fn 可以为 nil。
//
// 示例:
//
//	s := guard.New("a commonString", func(s string) {
//	    fmt.Println("s became", s, "at last")
//	})
//	defer s.Close()
//
//	*s.Ptr() = "a rainbow"
func New[T any](value T, fn Callback[T]) *Guard[T] {
	return &Guard[T]{
		value: value,
		fn:    slot[T]{byValue: fn},
	}
}

// NewRef 创建一个 Guard，接管 value 和按引用接收载荷的回调 fn。
//
// fn 收到的指针指向 Guard 内部存储，不会复制载荷；回调返回后存储被清零。
func NewRef[T any](value T, fn RefCallback[T]) *Guard[T] {
	return &Guard[T]{
		value: value,
		fn:    slot[T]{byRef: fn},
	}
}

// Func 创建一个零大小载荷的 Guard，Close 时执行 fn。
//
// 适用于只关心副作用、不关心值的场景，相当于一个可提前触发、可取消的 defer。
func Func(fn func()) *Guard[struct{}] {
	if fn == nil {
		return New[struct{}](struct{}{}, nil)
	}
	return New(struct{}{}, func(struct{}) { fn() })
}

// Value 返回载荷的当前值。
//
// 如果 Guard 已离开存活状态，会触发 panic。
func (g *Guard[T]) Value() T {
	g.mustAlive("Value")
	return g.value
}

// Ptr 返回指向载荷的指针，可用于原地读写，不会复制载荷。
//
// 通过指针所做的修改对终结回调可见。
// 指针在 Close 或 Cancel 之后不再有效。
// 如果 Guard 已离开存活状态，会触发 panic。
func (g *Guard[T]) Ptr() *T {
	g.mustAlive("Ptr")
	return &g.value
}

// Set 用 v 替换载荷。
//
// 如果 Guard 已离开存活状态，会触发 panic。
func (g *Guard[T]) Set(v T) {
	g.mustAlive("Set")
	g.value = v
}

// Alive 报告 Guard 是否仍处于存活状态。
func (g *Guard[T]) Alive() bool {
	return g != nil && g.state.Load() == stateAlive
}

// Close 结束 Guard 的生命周期：取出载荷和回调，执行回调。
//
// 只有第一次调用会执行回调并返回 nil；之后的调用（包括在 Cancel 之后）
// 不做任何事并返回 ErrConsumed。因此可以同时使用 defer g.Close() 和提前的 g.Close()。
//
// 回调中的 panic 会原样向上传播，此时 Guard 已处于消费状态，回调不会被再次执行。
// 如果 Close 本身是在另一个 panic 展开过程中由 defer 调用的，而回调再次 panic，
// 则由 Go 运行时处理：新的 panic 继续展开，运行时打印时会同时列出两者，recover 得到的是新的那个。
func (g *Guard[T]) Close() error {
	if g == nil || !g.state.CompareAndSwap(stateAlive, stateFinalizing) {
		return NewErrConsumed("Close")
	}
	defer g.state.Store(stateConsumed)

	fn := g.fn.take()
	if fn.byRef != nil {
		defer g.clear()
		fn.byRef(&g.value)
		return nil
	}

	value := g.value
	g.clear()
	if fn.byValue != nil {
		fn.byValue(value)
	}
	return nil
}

// Cancel 取走载荷并解除回调，回调永远不会再执行。
//
// 返回值:
//   - T: 载荷的最终值
//   - error: Guard 已离开存活状态时返回 ErrConsumed
func (g *Guard[T]) Cancel() (T, error) {
	var zero T
	if g == nil || !g.state.CompareAndSwap(stateAlive, stateConsumed) {
		return zero, NewErrConsumed("Cancel")
	}
	g.fn.take()
	value := g.value
	g.clear()
	return value, nil
}

// MustCancel 取走载荷并解除回调，如果失败则触发 panic。
//
// 此方法是 Cancel 的便捷封装，适用于确定 Guard 仍然存活的场景。
func (g *Guard[T]) MustCancel() T {
	value, err := g.Cancel()
	if err != nil {
		panic(err)
	}
	return value
}

func (g *Guard[T]) mustAlive(op string) {
	if !g.Alive() {
		panic(NewErrConsumed(op))
	}
}

func (g *Guard[T]) clear() {
	var zero T
	g.value = zero
}

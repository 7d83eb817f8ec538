package guard

// Callback 是按值接收载荷的终结回调。
//
// Guard 在 Close 时把最终的载荷移交给 Callback，此后 Guard 不再持有该值，
// 因此 Callback 可以放心地消费它（例如等待后台任务、关闭句柄）。
//
// 类型参数:
//   - T: 载荷类型
//
// 注意:
//   - Callback 可以为 nil，此时 Close 只会释放载荷，不产生任何副作用
//   - Callback 内部的 panic 不会被 Guard 捕获
//
// 示例:
//
//	fn := func(done chan struct{}) {
//	    <-done
//	}
type Callback[T any] func(value T)

// RefCallback 是按引用接收载荷的终结回调。
//
// 与 Callback 不同，RefCallback 收到的是指向 Guard 内部存储的指针，
// 载荷不会被复制。指针只在回调执行期间有效，回调返回后存储会被清零，
// 不要把它保存到别处。
//
// 示例:
//
//	fn := func(buf *bytes.Buffer) {
//	    buf.Reset()
//	}
type RefCallback[T any] func(value *T)

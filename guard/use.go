package guard

// Use 在一个确定的作用域内使用 Guard。
//
// Use 创建 Guard，执行 body，并通过 defer 保证无论 body 正常返回、提前返回
// 还是 panic，回调都会在 Use 返回前恰好执行一次。
// 如果 body 中调用了 Cancel 或提前调用了 Close，defer 中的 Close 不会再执行回调。
//
// 返回值:
//   - error: body 返回的错误，原样透传
//
// 示例:
//
//	err := guard.Use(conn, func(c net.Conn) { _ = c.Close() },
//	    func(g *guard.Guard[net.Conn]) error {
//	        _, err := g.Value().Write(payload)
//	        return err
//	    })
func Use[T any](value T, fn Callback[T], body func(g *Guard[T]) error) error {
	return run(New(value, fn), body)
}

// UseRef 与 Use 相同，但回调按引用接收载荷。
func UseRef[T any](value T, fn RefCallback[T], body func(g *Guard[T]) error) error {
	return run(NewRef(value, fn), body)
}

func run[T any](g *Guard[T], body func(g *Guard[T]) error) error {
	defer func() {
		_ = g.Close()
	}()
	if body == nil {
		return nil
	}
	return body(g)
}

/*
Package guard 提供一个泛型的“离开作用域时执行回调”的所有权包装器。

# 概述

guard 包把一个值和一个回调绑定在一起，保证在值的生命周期结束时，
回调恰好执行一次，并且拿到的是值的最终状态。常见用途：
  - 调试：打印值最后变成了什么
  - 资源释放：关闭文件、连接、句柄
  - 同步：在作用域结束时等待后台 goroutine 或工作池完成
  - 统计：记录值存活了多久

# 核心概念

## Guard

Guard 持有载荷（payload）和终结回调，处于以下两种状态之一：
  - 存活：载荷可以通过 Value / Ptr / Set 读写，回调尚未执行
  - 已消费：载荷已交给回调（Close），或已被取走（Cancel），不能再访问

## 回调

回调有两种形式，分别对应两个构造函数：

	type Callback[T any] func(value T)        // New：按值移交载荷
	type RefCallback[T any] func(value *T)    // NewRef：按引用访问载荷，不复制

# 作用域

Go 没有析构函数。Guard 依赖 defer 与 Close 配合来表达“离开作用域”：

	g := guard.New(value, fn)
	defer g.Close()

忘记调用 Close 意味着回调永远不会执行（泄漏的是副作用，不是内存）。
本包不会借助 runtime.SetFinalizer 在后台补救，因为那无法保证回调在作用域结束时同步执行。
如果不想依赖调用方记得写 defer，可以使用 Use，它在内部持有 defer：

	err := guard.Use(value, fn, func(g *guard.Guard[V]) error {
	    // 使用 g
	    return nil
	})

# 使用示例

## 字符串变化

	s := guard.New("a commonString", func(s string) {
	    fmt.Println("s became", s, "at last")
	})
	defer s.Close()

	// 很多代码之后 ...
	s.Set("a rainbow")
	// 函数返回时打印 "s became a rainbow at last"

## 等待后台 goroutine

	done := make(chan struct{})
	go func() {
	    defer close(done)
	    time.Sleep(2 * time.Second)
	}()

	g := guard.New(done, func(done chan struct{}) { <-done })
	defer g.Close()

## 提前结束与取消

	g := guard.New(v, fn)
	defer g.Close()

	if early {
	    g.Close() // 回调在此处执行，defer 中的 Close 不再执行回调
	}

	if skip {
	    v := g.MustCancel() // 取回载荷，回调永远不会执行
	}

# 错误处理

包中定义了以下错误类型：
  - ErrConsumed: Guard 已离开存活状态

Close 和 Cancel 在 Guard 已消费时返回 ErrConsumed；Value、Ptr、Set、MustCancel
在 Guard 已消费时直接 panic，不会返回过期值或零值。
回调自身的 panic 不会被捕获，原样向上传播。

# 并发安全

Guard 不加锁，载荷的并发安全性完全取决于 T：
  - T 可以交给另一个 goroutine，*Guard[T] 就可以，回调随之一起移交
  - T 支持并发只读，*Guard[T] 的 Value / Ptr 读取也支持
  - T 需要加锁的写操作，通过 Ptr 写入时同样需要调用方加锁

只有 Close 与 Cancel 之间的状态切换是原子的：多个 goroutine 同时调用时，
只有一个能成功，其余返回 ErrConsumed。
*/
package guard

package guard

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// recoverErr 执行 f 并返回它 panic 出来的 error。
func recoverErr(t *testing.T, f func()) (err error) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		var ok bool
		err, ok = r.(error)
		require.True(t, ok, "expected error panic value, got %T", r)
	}()
	f()
	return nil
}

// ============== 构造与访问测试 ==============

func TestNew_CallbackRunsOnScopeExit(t *testing.T) {
	i := 0
	func() {
		g := New(0, func(int) { i = 42 })
		defer g.Close()
	}()
	require.Equal(t, 42, i)
}

func TestGuard_Value(t *testing.T) {
	g := New(5, nil)
	defer g.Close()

	require.Equal(t, 5, g.Value())
	require.True(t, g.Alive())
}

func TestGuard_Ptr(t *testing.T) {
	g := New(5, nil)
	defer g.Close()

	*g.Ptr() = 12
	require.Equal(t, 12, g.Value())
	require.Same(t, g.Ptr(), g.Ptr())
}

func TestGuard_Set(t *testing.T) {
	g := New("a", nil)
	defer g.Close()

	g.Set("b")
	require.Equal(t, "b", g.Value())
}

func TestGuard_CallbackSeesFinalValue(t *testing.T) {
	var got string
	func() {
		s := New("a commonString", func(s string) { got = s })
		defer s.Close()

		*s.Ptr() = "a rainbow"
	}()
	require.Equal(t, "a rainbow", got)
}

func TestGuard_Transparency(t *testing.T) {
	direct := []int{2, 3, 4}
	g := New([]int{2, 3, 4}, nil)
	defer g.Close()

	require.Len(t, g.Value(), len(direct))

	direct = append(direct, 5)
	*g.Ptr() = append(*g.Ptr(), 5)

	require.Len(t, g.Value(), 4)
	require.Equal(t, direct, g.Value())
}

func TestGuard_NilCallback(t *testing.T) {
	g := New(1, nil)
	require.NoError(t, g.Close())
	require.False(t, g.Alive())
}

func TestFunc(t *testing.T) {
	calls := 0
	g := Func(func() { calls++ })
	require.Equal(t, struct{}{}, g.Value())
	require.NoError(t, g.Close())
	require.Equal(t, 1, calls)

	require.NoError(t, Func(nil).Close())
}

// ============== Close 测试 ==============

func TestGuard_Close_ExactlyOnce(t *testing.T) {
	calls := 0
	g := New(1, func(int) { calls++ })

	require.NoError(t, g.Close())
	err := g.Close()
	require.ErrorIs(t, err, ErrConsumed)
	require.Equal(t, 1, calls)
}

func TestGuard_Close_Early(t *testing.T) {
	var events []string
	func() {
		g := New("value", func(string) { events = append(events, "callback") })
		defer g.Close()

		events = append(events, "before")
		require.NoError(t, g.Close())
		events = append(events, "after")
	}()
	events = append(events, "scope end")

	require.Equal(t, []string{"before", "callback", "after", "scope end"}, events)
}

func TestGuard_Close_ReleasesPayload(t *testing.T) {
	g := New([]int{1, 2, 3}, func([]int) {})
	require.NoError(t, g.Close())
	require.Nil(t, g.value)
}

func TestGuard_Close_NilGuard(t *testing.T) {
	var g *Guard[int]
	require.ErrorIs(t, g.Close(), ErrConsumed)
	require.False(t, g.Alive())
}

func TestGuard_Close_CallbackPanics(t *testing.T) {
	calls := 0
	g := New(1, func(int) {
		calls++
		panic("boom")
	})

	require.PanicsWithValue(t, "boom", func() { _ = g.Close() })
	require.False(t, g.Alive())
	require.ErrorIs(t, g.Close(), ErrConsumed)
	require.Equal(t, 1, calls)
}

func TestGuard_Close_CallbackPanicsWhilePanicking(t *testing.T) {
	var recovered any
	func() {
		defer func() { recovered = recover() }()

		g := New(1, func(int) { panic("callback") })
		defer g.Close()

		panic("body")
	}()
	require.Equal(t, "callback", recovered)
}

func TestGuard_Close_JoinsBackgroundTask(t *testing.T) {
	var finished atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		time.Sleep(10 * time.Millisecond)
		finished.Store(true)
	}()

	g := New(done, func(done chan struct{}) { <-done })
	require.NoError(t, g.Close())
	require.True(t, finished.Load())
}

// ============== NewRef 测试 ==============

func TestNewRef_CallbackSeesStorage(t *testing.T) {
	var seen *[]int
	var final []int
	g := NewRef([]int{1}, func(v *[]int) {
		seen = v
		final = append(final, *v...)
	})
	p := g.Ptr()
	*p = append(*p, 2)

	require.NoError(t, g.Close())
	require.Same(t, p, seen)
	require.Equal(t, []int{1, 2}, final)
	require.Nil(t, *p)
}

func TestNewRef_CallbackMutatesInPlace(t *testing.T) {
	type counter struct{ n int }
	var out int
	g := NewRef(counter{n: 1}, func(c *counter) {
		c.n *= 10
		out = c.n
	})
	g.Ptr().n++

	require.NoError(t, g.Close())
	require.Equal(t, 20, out)
}

// ============== Cancel 测试 ==============

func TestGuard_Cancel(t *testing.T) {
	x := 0
	func() {
		g := New(struct{}{}, func(struct{}) { x++ })
		defer g.Close()

		_, err := g.Cancel()
		require.NoError(t, err)
	}()
	require.Equal(t, 0, x)
}

func TestGuard_Cancel_ReturnsFinalValue(t *testing.T) {
	calls := 0
	g := New([]string{"a"}, func([]string) { calls++ })
	*g.Ptr() = append(*g.Ptr(), "b")

	v, err := g.Cancel()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, v)

	require.ErrorIs(t, g.Close(), ErrConsumed)
	require.Equal(t, 0, calls)
}

func TestGuard_Cancel_AfterClose(t *testing.T) {
	g := New(7, nil)
	require.NoError(t, g.Close())

	v, err := g.Cancel()
	require.ErrorIs(t, err, ErrConsumed)
	require.Zero(t, v)
}

func TestGuard_MustCancel(t *testing.T) {
	g := New(7, func(int) { t.Fatal("callback must not run") })
	require.Equal(t, 7, g.MustCancel())

	err := recoverErr(t, func() { g.MustCancel() })
	require.ErrorIs(t, err, ErrConsumed)
}

// ============== 消费后访问测试 ==============

func TestGuard_AccessAfterConsume(t *testing.T) {
	tests := []struct {
		name string
		f    func(g *Guard[int])
	}{
		{"Value", func(g *Guard[int]) { g.Value() }},
		{"Ptr", func(g *Guard[int]) { g.Ptr() }},
		{"Set", func(g *Guard[int]) { g.Set(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(1, nil)
			require.NoError(t, g.Close())

			err := recoverErr(t, func() { tt.f(g) })
			require.ErrorIs(t, err, ErrConsumed)
			require.Contains(t, err.Error(), tt.name)
		})
	}
}

func TestGuard_AccessDuringCallback(t *testing.T) {
	var g *Guard[int]
	var err error
	g = New(1, func(int) {
		err = recoverErr(t, func() { g.Value() })
	})
	require.NoError(t, g.Close())
	require.ErrorIs(t, err, ErrConsumed)
}

// ============== 错误类型测试 ==============

func TestErrors(t *testing.T) {
	err := NewErrConsumed("Close")
	require.True(t, errors.Is(err, ErrConsumed))
	require.Equal(t, "Close on consumed guard: dropguard.guard: value already consumed", err.Error())
}

// ============== 并发测试 ==============

func TestConcurrent_MoveToGoroutine(t *testing.T) {
	a := &atomic.Int64{}
	a.Store(9)

	g := New(a, func(a *atomic.Int64) { a.Store(42) })

	var eg errgroup.Group
	eg.Go(func() error {
		defer g.Close()
		g.Value().Add(1)
		return nil
	})
	require.NoError(t, eg.Wait())
	require.EqualValues(t, 42, a.Load())
}

func TestConcurrent_SharedReads(t *testing.T) {
	g := New([]int{0}, nil)
	defer g.Close()

	const numGoroutines = 20

	var eg errgroup.Group
	for i := 0; i < numGoroutines; i++ {
		eg.Go(func() error {
			if n := len(g.Value()); n != 1 {
				return errors.New("unexpected length")
			}
			if n := len(*g.Ptr()); n != 1 {
				return errors.New("unexpected length")
			}
			return nil
		})
	}
	require.NoError(t, eg.Wait())
}

func TestConcurrent_Close(t *testing.T) {
	var calls, succeeded atomic.Int32
	g := New(1, func(int) { calls.Add(1) })

	const numGoroutines = 32

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			if err := g.Close(); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, calls.Load())
	require.EqualValues(t, 1, succeeded.Load())
}

func TestConcurrent_CloseAndCancel(t *testing.T) {
	for round := 0; round < 100; round++ {
		var calls, cancelled atomic.Int32
		g := New(round, func(int) { calls.Add(1) })

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = g.Close()
		}()
		go func() {
			defer wg.Done()
			if _, err := g.Cancel(); err == nil {
				cancelled.Add(1)
			}
		}()
		wg.Wait()

		require.EqualValues(t, 1, calls.Load()+cancelled.Load())
	}
}

// ============== 基准测试 ==============

func BenchmarkGuard_Ptr(b *testing.B) {
	g := New(0, nil)
	defer g.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		*g.Ptr()++
	}
}

func BenchmarkNew_Close(b *testing.B) {
	n := 0
	for i := 0; i < b.N; i++ {
		g := New(i, func(v int) { n += v })
		_ = g.Close()
	}
}

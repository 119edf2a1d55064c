// Package breaker 为优化求解路径提供熔断保护
// 连续失败达到阈值后暂时关闭优化路径，冷却期满进入半开试探
package breaker

import (
	"sync"
	"time"

	"github.com/banbiao/banbiao/pkg/logger"
)

// State 熔断器状态
type State int32

const (
	StateClosed   State = iota // 正常，允许优化求解
	StateOpen                  // 熔断，全部走兜底
	StateHalfOpen              // 试探，放行一次优化求解
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// 缺省参数
const (
	DefaultFailureThreshold = 3
	DefaultRecoveryTimeout  = 60 * time.Second
)

// Clock 时间源，测试时可注入假时钟
type Clock func() time.Time

// Breaker 优化求解熔断器
// 多个并发生成请求共享同一实例，内部用互斥保护计数与时间戳
type Breaker struct {
	mu sync.Mutex

	state       State
	failures    int
	lastFailure time.Time

	threshold int
	recovery  time.Duration
	now       Clock
}

// Option 构造选项
type Option func(*Breaker)

// WithThreshold 设置连续失败阈值
func WithThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.threshold = n
		}
	}
}

// WithRecoveryTimeout 设置冷却时长
func WithRecoveryTimeout(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.recovery = d
		}
	}
}

// WithClock 注入时间源
func WithClock(clock Clock) Option {
	return func(b *Breaker) {
		if clock != nil {
			b.now = clock
		}
	}
}

// New 创建熔断器
func New(opts ...Option) *Breaker {
	b := &Breaker{
		state:     StateClosed,
		threshold: DefaultFailureThreshold,
		recovery:  DefaultRecoveryTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Allow 判定本次生成是否可以走优化求解
// Open 状态下冷却期满自动转入 HalfOpen 并放行一次
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		return true
	case StateOpen:
		if b.now().Sub(b.lastFailure) >= b.recovery {
			b.transition(StateHalfOpen)
			return true
		}
		return false
	}
	return false
}

// RecordSuccess 记录一次优化求解成功
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.state != StateClosed {
		b.transition(StateClosed)
	}
}

// RecordFailure 记录一次优化求解失败
// 半开状态下的失败立即重新熔断并重置冷却计时
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()

	if b.state == StateHalfOpen {
		b.transition(StateOpen)
		return
	}
	if b.state == StateClosed && b.failures >= b.threshold {
		b.transition(StateOpen)
	}
}

// Reset 手动复位到关闭状态
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.state != StateClosed {
		b.transition(StateClosed)
	}
}

// State 返回当前状态
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures 返回当前连续失败计数
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	logger.NewEngineLogger().BreakerStateChange(from.String(), to.String(), b.failures)
}

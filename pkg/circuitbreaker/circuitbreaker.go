// Package circuitbreaker 实现熔断器模式（Circuit Breaker Pattern）
//
// 在本项目中熔断器包裹所有Redis缓存操作：
// 缓存本身就是旁路加速层，Redis故障时与其让每次请求都等到超时，
// 不如熔断后直接按缓存未命中处理，读路径退化为直查数据库。
//
// 状态机：CLOSED --失败达到阈值--> OPEN --超时--> HALF_OPEN --探测成功--> CLOSED
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State 熔断器状态
type State int

const (
	// StateClosed 关闭状态：请求正常通过，统计失败次数
	StateClosed State = iota
	// StateOpen 打开状态：请求快速失败，不触达下游
	StateOpen
	// StateHalfOpen 半开状态：放行有限的探测请求
	StateHalfOpen
)

// String 状态转字符串（便于日志）
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

var (
	// ErrOpenState 熔断器处于打开状态，请求被拒绝
	ErrOpenState = errors.New("circuit breaker is open")
	// ErrTooManyRequests 半开状态下探测请求数已达上限
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// Counts 统计计数
type Counts struct {
	Requests             uint32 // 当前周期内请求总数
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

func (c *Counts) onSuccess() {
	c.Requests++
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) onFailure() {
	c.Requests++
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// Config 熔断器配置
type Config struct {
	// MaxRequests 半开状态下允许通过的最大探测请求数
	MaxRequests uint32
	// Interval 关闭状态下统计计数的重置周期（0表示不重置）
	Interval time.Duration
	// Timeout 打开状态持续多久后转为半开
	Timeout time.Duration
	// ReadyToTrip 关闭状态下每次失败后调用，返回true触发熔断
	ReadyToTrip func(counts Counts) bool
}

// CircuitBreaker 熔断器
type CircuitBreaker struct {
	name   string
	config Config

	mu          sync.Mutex
	state       State
	counts      Counts
	expiry      time.Time // 当前状态的到期时间（OPEN→HALF_OPEN、CLOSED计数重置）
	halfOpenReq uint32    // 半开状态已放行的探测请求数
}

// NewCircuitBreaker 创建熔断器
func NewCircuitBreaker(name string, config Config) *CircuitBreaker {
	if config.MaxRequests == 0 {
		config.MaxRequests = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.ReadyToTrip == nil {
		config.ReadyToTrip = func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 5
		}
	}

	cb := &CircuitBreaker{
		name:   name,
		config: config,
		state:  StateClosed,
	}
	if config.Interval > 0 {
		cb.expiry = time.Now().Add(config.Interval)
	}
	return cb
}

// Name 熔断器名称
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// State 当前状态
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refreshLocked(time.Now())
	return cb.state
}

// Counts 当前统计
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts
}

// Execute 在熔断器保护下执行fn
// fn返回的error计为一次失败并原样返回；熔断拒绝时返回ErrOpenState
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := fn()
	cb.afterRequest(err == nil)
	return err
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	cb.refreshLocked(now)

	switch cb.state {
	case StateOpen:
		return ErrOpenState
	case StateHalfOpen:
		if cb.halfOpenReq >= cb.config.MaxRequests {
			return ErrTooManyRequests
		}
		cb.halfOpenReq++
	}
	return nil
}

func (cb *CircuitBreaker) afterRequest(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	cb.refreshLocked(now)

	if success {
		cb.counts.onSuccess()
		if cb.state == StateHalfOpen && cb.counts.ConsecutiveSuccesses >= cb.config.MaxRequests {
			cb.transitionLocked(StateClosed, now)
		}
		return
	}

	cb.counts.onFailure()
	switch cb.state {
	case StateClosed:
		if cb.config.ReadyToTrip(cb.counts) {
			cb.transitionLocked(StateOpen, now)
		}
	case StateHalfOpen:
		// 探测失败，回到打开状态
		cb.transitionLocked(StateOpen, now)
	}
}

// refreshLocked 处理基于时间的状态迁移，调用方必须持有锁
func (cb *CircuitBreaker) refreshLocked(now time.Time) {
	switch cb.state {
	case StateClosed:
		if cb.config.Interval > 0 && !cb.expiry.IsZero() && now.After(cb.expiry) {
			cb.counts = Counts{}
			cb.expiry = now.Add(cb.config.Interval)
		}
	case StateOpen:
		if now.After(cb.expiry) {
			cb.transitionLocked(StateHalfOpen, now)
		}
	}
}

func (cb *CircuitBreaker) transitionLocked(to State, now time.Time) {
	cb.state = to
	cb.counts = Counts{}
	cb.halfOpenReq = 0

	switch to {
	case StateClosed:
		if cb.config.Interval > 0 {
			cb.expiry = now.Add(cb.config.Interval)
		} else {
			cb.expiry = time.Time{}
		}
	case StateOpen:
		cb.expiry = now.Add(cb.config.Timeout)
	case StateHalfOpen:
		cb.expiry = time.Time{}
	}
}

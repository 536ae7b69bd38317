package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Egham-7/embedding-advisor/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "HalfOpen"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

type Config struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
	ResetAfter       time.Duration
}

// DefaultConfig is used for any threshold left unset
var DefaultConfig = Config{
	FailureThreshold: 5,
	SuccessThreshold: 3,
	Timeout:          30 * time.Second,
	ResetAfter:       2 * time.Minute,
}

// ConfigFrom converts YAML settings, falling back to DefaultConfig per field
func ConfigFrom(cfg *models.CircuitBreakerConfig) Config {
	out := DefaultConfig
	if cfg == nil {
		return out
	}
	if cfg.FailureThreshold > 0 {
		out.FailureThreshold = cfg.FailureThreshold
	}
	if cfg.SuccessThreshold > 0 {
		out.SuccessThreshold = cfg.SuccessThreshold
	}
	if cfg.TimeoutMs > 0 {
		out.Timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
	}
	if cfg.ResetAfterMs > 0 {
		out.ResetAfter = time.Duration(cfg.ResetAfterMs) * time.Millisecond
	}
	return out
}

const (
	keyPrefix          = "advisor:circuit_breaker:"
	stateKey           = "state"
	failureCountKey    = "failure_count"
	successCountKey    = "success_count"
	lastFailureTimeKey = "last_failure_time"
	lastStateChangeKey = "last_state_change"
	opTimeout          = 1 * time.Second
	maxTxAttempts      = 3
)

// Lua scripts keep each transition atomic across replicas
const (
	// KEYS: state, failure_count, success_count, last_state_change
	// ARGV: success threshold, now (unix seconds)
	recordSuccessScript = `
		local state = tonumber(redis.call('GET', KEYS[1]) or '0')
		redis.call('SET', KEYS[2], 0)

		if state == 2 then
			local count = redis.call('INCR', KEYS[3])
			if count >= tonumber(ARGV[1]) then
				redis.call('SET', KEYS[1], 0)
				redis.call('SET', KEYS[3], 0)
				redis.call('SET', KEYS[4], ARGV[2])
				return 2
			end
			return 1
		end
		return 0
	`

	// KEYS: state, failure_count, last_failure_time, last_state_change, success_count
	// ARGV: failure threshold, now (unix seconds), failure count ttl (ms, 0 = none)
	recordFailureScript = `
		local state = tonumber(redis.call('GET', KEYS[1]) or '0')
		local failureCount = redis.call('INCR', KEYS[2])
		if tonumber(ARGV[3]) > 0 then
			redis.call('PEXPIRE', KEYS[2], ARGV[3])
		end
		redis.call('SET', KEYS[3], ARGV[2])

		if (state == 0 and failureCount >= tonumber(ARGV[1])) or state == 2 then
			redis.call('SET', KEYS[1], 1)
			redis.call('SET', KEYS[4], ARGV[2])
			redis.call('SET', KEYS[5], '0')
			return 1
		end
		return 0
	`
)

// CircuitBreaker guards the generation call with state shared through Redis.
// Redis failures never block requests.
type CircuitBreaker struct {
	redisClient *redis.Client
	serviceName string
	config      Config
	keys        keyBuilder
}

type keyBuilder struct {
	prefix string
}

func (kb keyBuilder) state() string        { return kb.prefix + stateKey }
func (kb keyBuilder) failureCount() string { return kb.prefix + failureCountKey }
func (kb keyBuilder) successCount() string { return kb.prefix + successCountKey }
func (kb keyBuilder) lastFailure() string  { return kb.prefix + lastFailureTimeKey }
func (kb keyBuilder) lastChange() string   { return kb.prefix + lastStateChangeKey }

// New creates a breaker for serviceName with the given thresholds
func New(ctx context.Context, redisClient *redis.Client, serviceName string, config Config) *CircuitBreaker {
	cb := &CircuitBreaker{
		redisClient: redisClient,
		serviceName: serviceName,
		config:      config,
		keys:        keyBuilder{prefix: keyPrefix + serviceName + ":"},
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		fiberlog.Errorf("Redis connection failed for circuit breaker %s: %v", serviceName, err)
		return cb
	}

	cb.initializeState(pingCtx)
	return cb
}

// Name returns the guarded service name
func (cb *CircuitBreaker) Name() string {
	return cb.serviceName
}

func (cb *CircuitBreaker) initializeState(ctx context.Context) {
	created, err := cb.redisClient.SetNX(ctx, cb.keys.state(), int(Closed), 0).Result()
	if err != nil {
		fiberlog.Errorf("CircuitBreaker: Failed to initialize state: %v", err)
		return
	}
	if created {
		pipe := cb.redisClient.Pipeline()
		pipe.Set(ctx, cb.keys.failureCount(), 0, 0)
		pipe.Set(ctx, cb.keys.successCount(), 0, 0)
		pipe.Set(ctx, cb.keys.lastChange(), time.Now().Unix(), 0)
		if _, err := pipe.Exec(ctx); err != nil {
			fiberlog.Errorf("CircuitBreaker: Failed to initialize counters: %v", err)
			return
		}
		fiberlog.Debugf("CircuitBreaker: Initialized state for service %s", cb.serviceName)
	}
}

// CanExecute reports whether a call may go through. An Open circuit moves to
// HalfOpen once Timeout has elapsed since the last failure.
func (cb *CircuitBreaker) CanExecute(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	state, err := cb.getState(ctx)
	if err != nil {
		fiberlog.Errorf("CircuitBreaker: Failed to get state, allowing execution: %v", err)
		return true
	}

	switch state {
	case Closed, HalfOpen:
		return true
	case Open:
		lastFailureTime, err := cb.redisClient.Get(ctx, cb.keys.lastFailure()).Int64()
		if err != nil {
			fiberlog.Errorf("CircuitBreaker: Failed to get last failure time: %v", err)
			return false
		}
		if time.Since(time.Unix(lastFailureTime, 0)) > cb.config.Timeout {
			return cb.transitionToState(ctx, HalfOpen)
		}
		return false
	default:
		return false
	}
}

// RecordSuccess records a successful call
func (cb *CircuitBreaker) RecordSuccess(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	keys := []string{
		cb.keys.state(),
		cb.keys.failureCount(),
		cb.keys.successCount(),
		cb.keys.lastChange(),
	}
	result, err := cb.redisClient.Eval(ctx, recordSuccessScript, keys, cb.config.SuccessThreshold, time.Now().Unix()).Int()
	if err != nil {
		fiberlog.Errorf("CircuitBreaker: Failed to record success: %v", err)
		return
	}

	switch result {
	case 2:
		fiberlog.Infof("CircuitBreaker: %s transitioned to Closed state after success", cb.serviceName)
	case 1:
		fiberlog.Infof("CircuitBreaker: %s recorded success in HalfOpen state", cb.serviceName)
	default:
		fiberlog.Debugf("CircuitBreaker: %s recorded success", cb.serviceName)
	}
}

// RecordFailure records a failed call
func (cb *CircuitBreaker) RecordFailure(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	keys := []string{
		cb.keys.state(),
		cb.keys.failureCount(),
		cb.keys.lastFailure(),
		cb.keys.lastChange(),
		cb.keys.successCount(),
	}
	args := []any{
		cb.config.FailureThreshold,
		time.Now().Unix(),
		cb.config.ResetAfter.Milliseconds(),
	}
	result, err := cb.redisClient.Eval(ctx, recordFailureScript, keys, args...).Int()
	if err != nil {
		fiberlog.Errorf("CircuitBreaker: Failed to record failure: %v", err)
		return
	}

	if result == 1 {
		fiberlog.Warnf("CircuitBreaker: %s transitioned to Open state after failure", cb.serviceName)
	} else {
		fiberlog.Debugf("CircuitBreaker: %s recorded failure", cb.serviceName)
	}
}

// GetState returns the current state, Closed when Redis cannot be read
func (cb *CircuitBreaker) GetState(ctx context.Context) State {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	state, err := cb.getState(ctx)
	if err != nil {
		fiberlog.Errorf("CircuitBreaker: Failed to get state, returning Closed: %v", err)
		return Closed
	}
	return state
}

// Reset forces the circuit closed
func (cb *CircuitBreaker) Reset(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	pipe := cb.redisClient.Pipeline()
	pipe.Set(ctx, cb.keys.state(), int(Closed), 0)
	pipe.Set(ctx, cb.keys.failureCount(), 0, 0)
	pipe.Set(ctx, cb.keys.successCount(), 0, 0)
	pipe.Set(ctx, cb.keys.lastChange(), time.Now().Unix(), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to reset circuit breaker %s: %w", cb.serviceName, err)
	}
	fiberlog.Infof("CircuitBreaker: Reset circuit breaker for service %s", cb.serviceName)
	return nil
}

func (cb *CircuitBreaker) getState(ctx context.Context) (State, error) {
	stateStr, err := cb.redisClient.Get(ctx, cb.keys.state()).Result()
	if errors.Is(err, redis.Nil) {
		return Closed, nil
	}
	if err != nil {
		return Closed, fmt.Errorf("failed to get circuit breaker state: %w", err)
	}

	stateInt, err := strconv.Atoi(stateStr)
	if err != nil {
		return Closed, fmt.Errorf("invalid state value '%s': %w", stateStr, err)
	}
	return State(stateInt), nil
}

func (cb *CircuitBreaker) transitionToState(ctx context.Context, newState State) bool {
	for attempt := range maxTxAttempts {
		err := cb.redisClient.Watch(ctx, func(tx *redis.Tx) error {
			current, err := cb.getState(ctx)
			if err != nil {
				return err
			}
			if current == newState {
				return nil
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, cb.keys.state(), int(newState), 0)
				pipe.Set(ctx, cb.keys.lastChange(), time.Now().Unix(), 0)
				if newState != HalfOpen {
					pipe.Set(ctx, cb.keys.successCount(), 0, 0)
				}
				return nil
			})
			return err
		}, cb.keys.state())

		if err == nil {
			fiberlog.Debugf("CircuitBreaker: %s transitioned to %s", cb.serviceName, newState)
			return true
		}
		if !errors.Is(err, redis.TxFailedErr) {
			fiberlog.Errorf("CircuitBreaker: %s state transition failed: %v", cb.serviceName, err)
			return false
		}

		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}

	fiberlog.Errorf("CircuitBreaker: %s state transition failed after %d attempts", cb.serviceName, maxTxAttempts)
	return false
}

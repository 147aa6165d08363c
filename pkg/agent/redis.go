package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/docker/go-events"
	"github.com/go-redis/redis/v8"

	"github.com/tenantnet/netorch/pkg/command"
	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/util"
)

const (
	DefaultAnswerTimeout = 120 * time.Second
	DefaultQueueTTL      = 10 * time.Minute
	DefaultHostStale     = 90 * time.Second

	// BLPOP timeouts are whole seconds.
	minPollInterval = time.Second
)

// RedisOptions configures a RedisTransport. Zero durations take defaults.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	AnswerTimeout time.Duration
	QueueTTL      time.Duration
	PollInterval  time.Duration
	// HostStale is how old a host heartbeat may be before the host counts
	// as disconnected.
	HostStale time.Duration
	Backoff   events.ExponentialBackoffConfig
}

// RedisTransport queues envelopes on the router's command list and waits
// for the agent to push the answers back.
type RedisTransport struct {
	client *redis.Client
	opts   RedisOptions
}

// NewRedisTransport creates a transport. Call Connect to check the server.
func NewRedisTransport(opts RedisOptions) *RedisTransport {
	if opts.AnswerTimeout <= 0 {
		opts.AnswerTimeout = DefaultAnswerTimeout
	}
	if opts.QueueTTL <= 0 {
		opts.QueueTTL = DefaultQueueTTL
	}
	if opts.PollInterval < minPollInterval {
		opts.PollInterval = minPollInterval
	}
	if opts.HostStale <= 0 {
		opts.HostStale = DefaultHostStale
	}
	if opts.Backoff.Max <= 0 {
		opts.Backoff = events.DefaultExponentialBackoffConfig
	}
	return &RedisTransport{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		opts: opts,
	}
}

// Connect tests the connection
func (t *RedisTransport) Connect(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}

// Close closes the connection
func (t *RedisTransport) Close() error {
	return t.client.Close()
}

// ============================================================================
// Dispatch side
// ============================================================================

// Send queues env and blocks until its answers arrive, the answer timeout
// passes or ctx is done. A timeout is reported as agent unavailable.
func (t *RedisTransport) Send(ctx context.Context, env *Envelope) ([]command.Answer, error) {
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encoding batch %s: %w", env.Batch, err)
	}

	qkey := commandQueueKey(env.Router)
	pipe := t.client.TxPipeline()
	pipe.RPush(ctx, qkey, payload)
	pipe.Expire(ctx, qkey, t.opts.QueueTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, util.NewAgentUnavailable(env.Router, fmt.Errorf("queueing batch %s: %w", env.Batch, err))
	}

	akey := answerKey(env.Router, env.Batch)
	deadline := time.Now().Add(t.opts.AnswerTimeout)
	backoff := events.NewExponentialBackoff(t.opts.Backoff)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, util.NewAgentUnavailable(env.Router,
				fmt.Errorf("no answer to batch %s within %s", env.Batch, t.opts.AnswerTimeout))
		}
		wait := t.opts.PollInterval
		if remaining < wait {
			wait = remaining
		}
		if wait < minPollInterval {
			wait = minPollInterval
		}

		vals, err := t.client.BLPop(ctx, wait, akey).Result()
		switch {
		case err == nil:
			// vals is [key, value]
			var answers []command.Answer
			if err := json.Unmarshal([]byte(vals[1]), &answers); err != nil {
				return nil, fmt.Errorf("decoding answers to batch %s: %w", env.Batch, err)
			}
			return answers, nil
		case errors.Is(err, redis.Nil):
			backoff.Success(env)
			continue
		case ctx.Err() != nil:
			return nil, ctx.Err()
		}

		backoff.Failure(env, err)
		delay := backoff.Proceed(env)
		util.WithRouter(env.Router).Debugf("Polling answers to %s failed, retrying in %s: %v", env.Batch, delay, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// ============================================================================
// Host liveness
// ============================================================================

// HostStatus reads the status a host agent last reported. A host that never
// reported, or whose heartbeat is older than HostStale, is Disconnected.
func (t *RedisTransport) HostStatus(ctx context.Context, hostID int64) (model.HostStatus, error) {
	vals, err := t.client.HGetAll(ctx, hostKey(hostID)).Result()
	if err != nil {
		return "", fmt.Errorf("reading host %d: %w", hostID, err)
	}
	if len(vals) == 0 {
		return model.HostDisconnected, nil
	}
	seen, err := time.Parse(time.RFC3339, vals["last_seen"])
	if err != nil || time.Since(seen) > t.opts.HostStale {
		return model.HostDisconnected, nil
	}
	if vals["status"] == "" {
		return model.HostDisconnected, nil
	}
	return model.HostStatus(vals["status"]), nil
}

// Heartbeat records status for hostID. The key expires after HostStale so a
// host agent that dies stops counting as up.
func (t *RedisTransport) Heartbeat(ctx context.Context, hostID int64, status model.HostStatus) error {
	key := hostKey(hostID)
	pipe := t.client.TxPipeline()
	pipe.HSet(ctx, key, "status", string(status), "last_seen", time.Now().UTC().Format(time.RFC3339))
	pipe.Expire(ctx, key, t.opts.HostStale)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("heartbeat for host %d: %w", hostID, err)
	}
	return nil
}

// ============================================================================
// Agent side
// ============================================================================

// Handler executes one envelope and returns its answers.
type Handler func(ctx context.Context, env *Envelope) []command.Answer

// AcceptAll acknowledges every command without executing it. netorch agent
// serve uses it to stand in for router agents in a lab.
func AcceptAll(ctx context.Context, env *Envelope) []command.Answer {
	answers := make([]command.Answer, 0, len(env.Commands))
	for _, c := range env.Commands {
		answers = append(answers, command.Answer{ID: c.ID, Result: true})
	}
	return answers
}

// Serve pops envelopes queued for router and answers each with handler
// until ctx is done. Under the Stop policy answers after the first failure
// are dropped, as a real agent would not have run those commands.
func (t *RedisTransport) Serve(ctx context.Context, router string, handler Handler) error {
	qkey := commandQueueKey(router)
	log := util.WithRouter(router)
	for {
		vals, err := t.client.BLPop(ctx, t.opts.PollInterval, qkey).Result()
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading command queue of %s: %w", router, err)
		}

		var env Envelope
		if err := json.Unmarshal([]byte(vals[1]), &env); err != nil {
			log.Warnf("Dropping malformed envelope: %v", err)
			continue
		}
		answers := truncateAfterFailure(env.OnError, handler(ctx, &env))
		log.Debugf("Answering batch %s with %d answers", env.Batch, len(answers))

		payload, err := json.Marshal(answers)
		if err != nil {
			return fmt.Errorf("encoding answers to %s: %w", env.Batch, err)
		}
		akey := answerKey(router, env.Batch)
		pipe := t.client.TxPipeline()
		pipe.RPush(ctx, akey, payload)
		pipe.Expire(ctx, akey, t.opts.QueueTTL)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("answering batch %s: %w", env.Batch, err)
		}
	}
}

func truncateAfterFailure(policy command.OnError, answers []command.Answer) []command.Answer {
	if policy != command.Stop {
		return answers
	}
	for i, a := range answers {
		if !a.Result {
			return answers[:i+1]
		}
	}
	return answers
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
	"github.com/paperclip-video/paperclip-backend/internal/sse"
)

// SSEBus fans job and video events out across API replicas. Each
// process publishes to one Redis channel; every replica (the publisher
// included) runs a forwarder that delivers received events into its
// local hub, so clients see one copy no matter which replica did the
// work.
type SSEBus interface {
	Publish(ctx context.Context, msg sse.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m sse.SSEMessage)) error
	Close() error
}

// Options configures the bus connection. Zero values fall back to the
// REDIS_* environment.
type Options struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

func optionsFromEnv() Options {
	db := 0
	if raw := strings.TrimSpace(os.Getenv("REDIS_DB")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			db = n
		}
	}
	return Options{
		Addr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
		Channel:  strings.TrimSpace(os.Getenv("REDIS_CHANNEL")),
	}
}

// wireEnvelope is the on-channel payload. The version field lets a
// rolling deploy drop frames it does not understand instead of
// mis-decoding them.
type wireEnvelope struct {
	V       int          `json:"v"`
	Channel string       `json:"channel"`
	Event   sse.SSEEvent `json:"event"`
	Data    any          `json:"data,omitempty"`
}

const wireVersion = 1

// decodeWireFrame parses one published frame. ok is false for frames
// from a newer wire version, which the forwarder drops.
func decodeWireFrame(payload []byte) (sse.SSEMessage, bool, error) {
	var env wireEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return sse.SSEMessage{}, false, err
	}
	if env.V > wireVersion {
		return sse.SSEMessage{}, false, nil
	}
	return sse.SSEMessage{
		Channel: env.Channel,
		Event:   env.Event,
		Data:    env.Data,
	}, true, nil
}

type sseBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewSSEBus connects using the REDIS_* environment. Missing REDIS_ADDR
// is an error so the caller can fall back to process-local delivery.
func NewSSEBus(log *logger.Logger) (SSEBus, error) {
	return NewSSEBusWithOptions(log, optionsFromEnv())
}

func NewSSEBusWithOptions(log *logger.Logger, opts Options) (SSEBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.Addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	if opts.Channel == "" {
		opts.Channel = "sse"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &sseBus{
		log:     log.With("service", "RedisSSEBus"),
		rdb:     rdb,
		channel: opts.Channel,
	}, nil
}

func (b *sseBus) Publish(ctx context.Context, msg sse.SSEMessage) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis SSE bus not initialized")
	}
	raw, err := json.Marshal(wireEnvelope{
		V:       wireVersion,
		Channel: msg.Channel,
		Event:   msg.Event,
		Data:    msg.Data,
	})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *sseBus) StartForwarder(ctx context.Context, onMsg func(m sse.SSEMessage)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis SSE bus not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				msg, ok, err := decodeWireFrame([]byte(m.Payload))
				if err != nil {
					b.log.Warn("bad redis SSE payload", "error", err)
					continue
				}
				if !ok {
					b.log.Warn("dropping SSE frame from newer replica")
					continue
				}
				onMsg(msg)
			}
		}
	}()

	return nil
}

func (b *sseBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

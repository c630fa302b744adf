package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// LogNotifier writes messages to the log instead of delivering them.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs msg.
func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.logger.Info().
		Str("kind", string(msg.Kind)).
		Str("recipient", msg.Recipient).
		Str("subject", msg.Subject).
		Str("event_id", msg.EventID).
		Str("registration_id", msg.RegistrationID).
		Msg("notification")
	return nil
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string // Redis server address (host:port)
	Password string // Redis password (optional)
	DB       int    // Redis database number
	List     string // list the mail worker pops from
}

// RedisNotifier queues messages on a Redis list for an external mail
// worker. Send returns once the message is queued, not delivered.
type RedisNotifier struct {
	client *redis.Client
	list   string
	logger zerolog.Logger
}

// NewRedisNotifier connects to Redis and verifies the connection.
func NewRedisNotifier(cfg RedisConfig, logger zerolog.Logger) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Str("list", cfg.List).
		Msg("connected to Redis notification queue")

	return newRedisNotifier(client, cfg.List, logger), nil
}

func newRedisNotifier(client *redis.Client, list string, logger zerolog.Logger) *RedisNotifier {
	if list == "" {
		list = "semreg:notifications"
	}
	return &RedisNotifier{client: client, list: list, logger: logger}
}

// Send appends msg as JSON to the tail of the list.
func (n *RedisNotifier) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := n.client.RPush(ctx, n.list, data).Err(); err != nil {
		return fmt.Errorf("queue message: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}

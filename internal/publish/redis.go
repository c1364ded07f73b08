// Package publish stores finished snapshot tables in Redis for consumers
// that do not read the files.
package publish

import (
	"context"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long a published table lives without a refresh.
const DefaultTTL = 7 * 24 * time.Hour

// KeyPrefix namespaces every key written by the Writer.
const KeyPrefix = "gplus"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Key returns the Redis key of a competition table.
func Key(competition, table string) string {
	return fmt.Sprintf("%s:%s:%s", KeyPrefix, competition, table)
}

// LatestRunKey holds the id of the run the competition's tables came from.
func LatestRunKey(competition string) string {
	return Key(competition, "latest_run")
}

// Table is one named table to publish.
type Table struct {
	Name string
	Rows any
}

// Connect opens a client for addr, which is either host:port or a
// redis:// URL, and pings it.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		var err error
		opts, err = redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
	} else {
		opts = &redis.Options{Addr: addr}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return client, nil
}

// Writer publishes snapshot tables as JSON values with a TTL.
type Writer struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewWriter returns a writer over client. ttl <= 0 uses DefaultTTL.
func NewWriter(client redis.Cmdable, ttl time.Duration) *Writer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Writer{client: client, ttl: ttl}
}

// Payloads encodes the tables, keyed by their Redis key.
func Payloads(competition string, tables []Table) (map[string][]byte, error) {
	out := make(map[string][]byte, len(tables))
	for _, t := range tables {
		data, err := json.Marshal(t.Rows)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s: %w", t.Name, err)
		}
		out[Key(competition, t.Name)] = data
	}
	return out, nil
}

// Publish writes every table and then the latest run id in one pipeline.
func (w *Writer) Publish(ctx context.Context, competition, runID string, tables []Table) error {
	payloads, err := Payloads(competition, tables)
	if err != nil {
		return err
	}
	pipe := w.client.Pipeline()
	for key, data := range payloads {
		pipe.Set(ctx, key, data, w.ttl)
	}
	pipe.Set(ctx, LatestRunKey(competition), runID, w.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish %s: %w", competition, err)
	}
	return nil
}

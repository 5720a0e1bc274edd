package publisher

import (
	"context"
	"encoding/base64"
	"hash/fnv"
	"strconv"

	"github.com/redis/go-redis/v9"

	"sjsage522/pricewatch/logger"
	"sjsage522/pricewatch/pkg/errors"
)

// MessageField is the stream entry field holding the base64 event
const MessageField = "b64_price_event"

// RedisPublisher implements Publisher using Redis streams
type RedisPublisher struct {
	client          *redis.Client
	ctx             context.Context
	streamPrefix    string
	streamCount     int
	streamMaxLength int
	log             *logger.Logger
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(ctx context.Context, addr string, db int, streamPrefix string, streamCount int, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if streamCount < 1 {
		streamCount = 1
	}

	return &RedisPublisher{
		client:          client,
		ctx:             ctx,
		streamPrefix:    streamPrefix,
		streamCount:     streamCount,
		streamMaxLength: streamMaxLength,
		log:             logger.ForPublisher(),
	}
}

// Ping checks the connection
func (p *RedisPublisher) Ping() error {
	if err := p.client.Ping(p.ctx).Err(); err != nil {
		return errors.NewPublisher("", "redis ping failed", err)
	}
	return nil
}

// Publish base64 encodes message and appends it to the stream chosen by key.
// With streamCount 4 the streams are prefix:0 ~ prefix:3.
func (p *RedisPublisher) Publish(key string, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)
	stream := p.streamFor(key)

	err := p.client.XAdd(p.ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			MessageField: encodedMessage,
		},
	}).Err()
	if err != nil {
		return errors.NewPublisher(key, "xadd to "+stream+" failed", err)
	}
	p.log.Debug().Str("stream", stream).Str("url", key).Msg("Published price event")
	return nil
}

// streamFor keeps all events of one product on one stream so consumers see them in order
func (p *RedisPublisher) streamFor(key string) string {
	h := fnv.New32a()
	h.Write([]byte(key))
	return p.streamPrefix + ":" + strconv.Itoa(int(h.Sum32()%uint32(p.streamCount)))
}

// TrimStreams trims all streams to the configured maximum length
func (p *RedisPublisher) TrimStreams() error {
	for i := 0; i < p.streamCount; i++ {
		stream := p.streamPrefix + ":" + strconv.Itoa(i)
		if err := p.client.XTrimMaxLen(p.ctx, stream, int64(p.streamMaxLength)).Err(); err != nil {
			return errors.NewPublisher("", "xtrim "+stream+" failed", err)
		}
	}
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

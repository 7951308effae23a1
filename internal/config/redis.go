package config

// This file defines a Redis client constructor.  Redis serves two purposes in
// this service: distributed rate limiting and the record-change pub/sub feed
// that backs the /v1/events stream.  If the connection cannot be established
// at startup the function returns nil and callers degrade gracefully by
// disabling both features.

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient instantiates a Redis client using environment variables:
//
//	REDIS_HOST / REDIS_PORT – hostname and port of the Redis server
//	REDIS_ADDR              – host:port shorthand (takes precedence)
//	REDIS_PASSWORD          – optional password
//	REDIS_DB                – database number (default 0)
//
// The returned client may be nil if a connection cannot be established.
func NewRedisClient() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	dbNum := 0
	if s := os.Getenv("REDIS_DB"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			dbNum = n
		}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       dbNum,
	})
	// Ping with a short timeout; nil signals callers to run without Redis.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}

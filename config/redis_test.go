package config

import "testing"

func TestNewRedisClientUnreachableReturnsNil(t *testing.T) {
	rdb := NewRedisClient(RedisConfig{Host: "127.0.0.1", Port: "1"})
	if rdb != nil {
		t.Error("expected nil client when redis is unreachable")
	}
}

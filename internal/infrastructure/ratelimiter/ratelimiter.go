package ratelimiter

import "time"

type Limiter interface {
	// Allow reports whether the client identified by key may proceed, and
	// if not, how long until it may retry.
	Allow(key string) (bool, time.Duration)
	Close()
}

// Package ratelimit caps requests per source address with a sliding log:
// every accepted request is remembered for one window, and a request is
// rejected when the window already holds Max accepted requests. Rejected
// requests are not recorded.
//
// MemoryLimiter keeps the log in process memory and resets on restart.
// RedisLimiter keeps it in a sorted set per address so several replicas
// share one budget. Concurrent checks on the same address may over-admit
// by a small constant; the limiter is advisory throttling, not accounting.
package ratelimit

// Package redis connects ally-core to Redis and implements the fixed-window
// rate limiter used on the authentication endpoints.
//
// Counters live under "ratelimit:{key}:{window}" and expire with their
// window, so a restart of the API never resets or leaks them.
package redis

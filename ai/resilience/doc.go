// Package resilience puts a circuit breaker (github.com/sony/gobreaker) and an
// optional rate limit (golang.org/x/time/rate) in front of AI services, so a
// dead model server turns into fast failures that the retry and fallback
// policy can absorb instead of a slow timeout per call.
package resilience

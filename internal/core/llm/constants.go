package llm

import "time"

const (
	circuitBreakerThreshold = 5
	circuitBreakerTimeout   = 1 * time.Minute

	rateLimiterBurst = 5

	// Scoring request shape.
	scoringTemperature = 0.1
	scoringMaxTokens   = 800
	maxBodyChars       = 1000

	defaultScore = 50
	maxScore     = 100

	// Generation request shape.
	generateMaxTokens = 1024

	// Metric label values.
	statusSuccess = "success"
	statusError   = "error"

	// Log keys shared across the package.
	logKeyProvider = "provider"
	logKeyModel    = "model"
	logKeyTask     = "task"

	logMsgCircuitBreakerOpen = "circuit breaker open, skipping provider"

	errRateLimiter = "rate limiter: %w"
)

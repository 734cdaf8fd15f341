package config

import "errors"

// Validation errors returned by Config.Validate. Callers match them with
// errors.Is; the returned error adds the offending value.
var (
	// ErrInvalidProvider is returned for an unsupported search provider.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidFormat is returned for an unsupported output format.
	ErrInvalidFormat = errors.New("invalid output format")

	// ErrInvalidKeyMode is returned when the site key is neither url nor title.
	ErrInvalidKeyMode = errors.New("invalid key mode: must be url or title")

	// ErrInvalidFingerprint is returned for an unknown TLS fingerprint profile.
	ErrInvalidFingerprint = errors.New("invalid fingerprint profile")

	// ErrInvalidUserAgentStrategy is returned for an unknown rotation strategy.
	ErrInvalidUserAgentStrategy = errors.New("invalid user-agent strategy: must be sequential or random")

	// ErrInvalidTemplate is returned when a query template lacks the {area} placeholder.
	ErrInvalidTemplate = errors.New("invalid query template: must contain {area}")

	// ErrInvalidTimeout is returned when the request timeout is negative.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidConcurrency is returned when concurrency is negative.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be non-negative")

	// ErrInvalidPenalty is returned when the miss penalty is negative.
	ErrInvalidPenalty = errors.New("invalid miss penalty: must be non-negative")

	// ErrInvalidRate is returned when the request rate or jitter is out of range.
	ErrInvalidRate = errors.New("invalid rate: rps must be non-negative and jitter within [0, 1]")

	// ErrInvalidRetries is returned when the retry count is negative.
	ErrInvalidRetries = errors.New("invalid retries: must be non-negative")

	// ErrInvalidLogLevel is returned for a log level slog cannot parse.
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidMetricsPort is returned when the metrics port is outside 0-65535.
	ErrInvalidMetricsPort = errors.New("invalid metrics port")
)

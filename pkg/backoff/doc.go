// Package backoff provides retry delay strategies: Exponential with optional
// jitter, Linear and Fixed. The query cache uses them to space out producer
// retries.
package backoff

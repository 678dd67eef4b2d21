// Package retry runs operations with bounded exponential backoff.
//
// Errors are classified before each retry: failures wrapped with Permanent, and
// errors carrying an HTTP status that signals a caller problem (401, 403, 400...),
// stop immediately. Timeouts, rate limiting (429) and server errors (5xx) are
// retried until the attempt budget is spent or the context ends.
package retry

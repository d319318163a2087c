// Package clickup is a resilient client for the ClickUp REST API (v2).
//
// # Connection
//
// A Connection owns everything a request needs: the base URL, the
// Authenticator chosen from the configured credentials, the HTTP client
// and the resilience pipeline. Every verb goes through Connection.Do:
//
//  1. the path is resolved against the base URL and the query encoded
//  2. Authorization, User-Agent, Accept and X-Request-Id headers are set
//  3. the call runs through circuit breaker → backoff retry →
//     rate-limit retry → send, with the body rebuilt for every attempt
//  4. a 2xx body is decoded; an empty body means "absent", not an error
//  5. any other status becomes an *Error with a Kind
//
// Go methods cannot take type parameters, so the typed helpers are package
// functions:
//
//	task, err := clickup.Get[clickup.Task](ctx, conn, "task/"+id, nil)
//	if clickup.IsNotFound(err) {
//	    ...
//	}
//
// # Errors
//
// Failures are reported as *Error. Branch on Kind (or the Is* helpers)
// rather than on messages. Only KindTransient and KindRateLimit are
// retried and counted by the circuit breaker; validation, auth, not-found
// and other client errors are final. Cancellation is reported as
// KindCanceled and is never retried.
//
// # Wire format
//
// JSON fields are snake_case and mapped with explicit struct tags.
// Timestamps are epoch milliseconds, sent as strings or numbers; Timestamp
// accepts both and treats 0, "0" and "" as absent.
//
// # Pagination
//
// List calls return Page[T]. Offset-style endpoints that report a total
// use NewPage; endpoints that only report whether more pages exist use
// NewCursorPage, whose totals are UnknownCount. PageIterator walks pages
// until HasNextPage is false.
package clickup

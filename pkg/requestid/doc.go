// Package requestid correlates outgoing billing API calls with log records.
//
// A request ID is a short opaque string carried in a context.Context and sent
// to the billing service in the "X-Request-ID" header. Storing it in the
// context lets every log record emitted while serving one operation carry the
// same identifier as the HTTP requests that operation made.
//
// The package offers:
//
//   - WithContext, FromContext and Ensure for storing, reading and lazily
//     generating (UUIDv4) request IDs.
//
//   - Transport, an http.RoundTripper that stamps each outgoing request with
//     the ID from its context. Malformed IDs are replaced.
//
//   - LoggerExtractor, which plugs into logger.WithContextExtractors.
//
// # Usage
//
//	client := &http.Client{Transport: requestid.NewTransport(http.DefaultTransport)}
//
//	ctx, id := requestid.Ensure(ctx)
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	log.InfoContext(ctx, "fetching prices") // carries request_id=id
package requestid

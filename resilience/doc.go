// Package resilience provides the concurrency and backoff primitives the
// service builds on:
//   - Bulkhead: bounds how many voice pipelines run at once
//   - Retry: exponential backoff for the Telegram long-poll loop
//   - RateLimiter: token bucket in front of outbound Telegram calls
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "voice", MaxConcurrent: 16, MaxWait: 10 * time.Minute})
//	err := bh.Execute(ctx, func() error { return handle(ctx, msg) })
package resilience

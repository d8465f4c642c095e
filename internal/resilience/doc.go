// Package resilience groups the fault tolerance helpers used by the
// notification worker.
//
//   - circuitbreaker: gobreaker wrappers for the push provider and the database
//   - retry: bounded exponential backoff for transient infrastructure errors
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.PushProviderConfig(isInvalidToken))
//	_, err := cb.Execute(func() (interface{}, error) {
//	    return nil, sender.Send(ctx, device, msg)
//	})
//
//	err := retry.WithBackoff(ctx, retry.StreamConfig(), func() error {
//	    _, err := store.Append(ctx, stream, fields)
//	    return err
//	})
package resilience

package payment

import (
	"context"
	"errors"
	"time"
)

// CreateIntentWithRetry retries CreateIntent on transient gateway failures
// with linear backoff. Only ErrUnavailable is retried; business rejections
// surface immediately. Confirmation handling is never retried here because
// webhooks are redelivered by the gateway itself.
func CreateIntentWithRetry(ctx context.Context, gw Gateway, req IntentRequest, attempts int, backoff time.Duration) (*Intent, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i) * backoff):
			}
		}

		intent, err := gw.CreateIntent(ctx, req)
		if err == nil {
			return intent, nil
		}
		if !errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

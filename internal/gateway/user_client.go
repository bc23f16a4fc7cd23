// Package gateway holds the client for the external user service.
// The reservation service never stores user data; it only confirms
// that a user id exists before committing a booking.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// ErrUserNotFound is returned when the user service affirmatively
// reports that no user exists for the id.  Callers must not retry.
var ErrUserNotFound = errors.New("user not found")

// ErrUnavailable is returned when the user service could not answer:
// connection failure, timeout or an unexpected status code.  Unlike
// ErrUserNotFound this is a candidate for retry.
var ErrUnavailable = errors.New("user service unavailable")

// UserClient resolves user existence against the user service over
// HTTP.  Every request is bounded by the configured timeout; a hung
// identity service surfaces as ErrUnavailable instead of blocking
// the booking path.
type UserClient struct {
	baseURL string
	hc      *http.Client
}

// NewUserClient constructs a client for the user service reachable
// at baseURL (e.g. "http://localhost:8081").
func NewUserClient(baseURL string, timeout time.Duration) *UserClient {
	return &UserClient{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: timeout},
	}
}

// Exists confirms that the user id is known to the user service.  It
// returns nil when the user exists, ErrUserNotFound when the service
// reports no such user, and ErrUnavailable on infrastructure
// failures.  A single retry is attempted on ErrUnavailable; a
// not-found answer is authoritative and never retried.
func (c *UserClient) Exists(ctx context.Context, userID uint64) error {
	err := c.lookup(ctx, userID)
	if errors.Is(err, ErrUnavailable) {
		err = c.lookup(ctx, userID)
	}
	return err
}

func (c *UserClient) lookup(ctx context.Context, userID uint64) error {
	url := c.baseURL + "/api/users/" + strconv.FormatUint(userID, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrUserNotFound
	default:
		return fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}
}

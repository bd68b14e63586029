package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// Upstream incapsula le chiamate HTTP verso un endpoint del backend,
// protette da un circuit breaker dedicato.
type Upstream struct {
	name    string
	base    string
	path    string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewUpstream(name, base, path string, timeout time.Duration, breaker *gobreaker.CircuitBreaker) *Upstream {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	path = "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
	return &Upstream{
		name:    name,
		base:    base,
		path:    path,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
	}
}

func mkCB(name string, fails int, openFor, interval time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: interval,
		Timeout:  openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(fails)
		},
		// una richiesta annullata dalla sessione non è colpa del backend
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// State is the breaker state, for health reporting.
func (u *Upstream) State() gobreaker.State { return u.breaker.State() }

// GetJSON esegue la GET e decodifica JSON in out.
func (u *Upstream) GetJSON(ctx context.Context, out any) error {
	return u.do(ctx, http.MethodGet, nil, out)
}

// PostJSON invia in come corpo JSON e decodifica la risposta in out.
func (u *Upstream) PostJSON(ctx context.Context, in, out any) error {
	return u.do(ctx, http.MethodPost, in, out)
}

func (u *Upstream) do(ctx context.Context, method string, in, out any) error {
	_, err := u.breaker.Execute(func() (any, error) {
		var body *bytes.Reader
		if in != nil {
			b, err := json.Marshal(in)
			if err != nil {
				return nil, fmt.Errorf("%s encode error: %w", u.name, err)
			}
			body = bytes.NewReader(b)
		}
		var req *http.Request
		var err error
		if body != nil {
			req, err = http.NewRequestWithContext(ctx, method, u.base+u.path, body)
		} else {
			req, err = http.NewRequestWithContext(ctx, method, u.base+u.path, nil)
		}
		if err != nil {
			return nil, fmt.Errorf("%s request error: %w", u.name, err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := u.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s request error: %w", u.name, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%s upstream status %d", u.name, resp.StatusCode)
		}
		if out == nil {
			return nil, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("%s decode error: %w", u.name, err)
		}
		return nil, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s breaker: %w", u.name, err)
	}
	return err
}

// Package apiclient is the REST transport to the storefront backend. Every
// call goes through a circuit breaker and comes back either decoded into the
// caller's result or as an error from the apperr taxonomy.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"

	"github.com/flicky/go-storefront/internal/apperr"
	"github.com/flicky/go-storefront/internal/dto"
)

const defaultBreakerFailures = 5

type Options struct {
	BaseURL            string
	Timeout            time.Duration
	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration
}

// Request describes one backend call. Token, Query, Body, Result, IfMatch
// and File are optional.
type Request struct {
	Method  string
	Path    string
	Token   string
	Query   url.Values
	Body    any
	Result  any
	IfMatch string
	File    *File
}

type File struct {
	Field  string
	Name   string
	Reader io.Reader
}

type Response struct {
	Status int
	Header http.Header
}

type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker[*resty.Response]
	log     *slog.Logger
}

func New(opts Options, log *slog.Logger) *Client {
	rc := resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}

	failures := opts.BreakerFailures
	if failures == 0 {
		failures = defaultBreakerFailures
	}

	breaker := gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Timeout:     opts.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Client errors and abandoned requests say nothing about backend health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, errClientStatus)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{http: rc, breaker: breaker, log: log}
}

var (
	errClientStatus = errors.New("client error status")
	errServerStatus = errors.New("server error status")
)

// Do executes req. Non-2xx answers become *apperr.APIError; transport
// failures and an open breaker become apperr.ErrNetwork.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	r := c.http.R().
		SetContext(ctx).
		SetError(&dto.MessageResponse{})
	if req.Token != "" {
		r.SetAuthToken(req.Token)
	}
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}
	if req.Result != nil {
		r.SetResult(req.Result)
	}
	if req.IfMatch != "" {
		r.SetHeader("If-Match", req.IfMatch)
	}
	if req.File != nil {
		r.SetFileReader(req.File.Field, req.File.Name, req.File.Reader)
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*resty.Response, error) {
		resp, err := r.Execute(req.Method, req.Path)
		if err != nil {
			return nil, err
		}
		switch {
		case resp.StatusCode() >= http.StatusInternalServerError:
			return resp, errServerStatus
		case resp.IsError():
			return resp, errClientStatus
		}
		return resp, nil
	})

	log := c.log.With("method", req.Method, "path", req.Path, "duration", time.Since(start))

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		log.Warn("backend call rejected by breaker", "error", err)
		return nil, fmt.Errorf("%w: backend unavailable: %w", apperr.ErrNetwork, err)
	case errors.Is(err, errServerStatus), errors.Is(err, errClientStatus):
		apiErr := toAPIError(resp)
		log.Debug("backend call failed", "status", apiErr.Status, "error", apiErr.Message)
		return &Response{Status: resp.StatusCode(), Header: resp.Header()}, apiErr
	case err != nil:
		log.Warn("backend unreachable", "error", err)
		return nil, fmt.Errorf("%w: %s %s: %w", apperr.ErrNetwork, req.Method, req.Path, err)
	}

	log.Debug("backend call", "status", resp.StatusCode())
	return &Response{Status: resp.StatusCode(), Header: resp.Header()}, nil
}

func toAPIError(resp *resty.Response) *apperr.APIError {
	apiErr := &apperr.APIError{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*dto.MessageResponse); ok && body != nil {
		apiErr.Message = body.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(apiErr.Status)
	}
	return apiErr
}

func (c *Client) Get(ctx context.Context, path, token string, query url.Values, result any) error {
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Token: token, Query: query, Result: result})
	return err
}

func (c *Client) Post(ctx context.Context, path, token string, body, result any) error {
	_, err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Token: token, Body: body, Result: result})
	return err
}

func (c *Client) Put(ctx context.Context, path, token string, body, result any) error {
	_, err := c.Do(ctx, Request{Method: http.MethodPut, Path: path, Token: token, Body: body, Result: result})
	return err
}

func (c *Client) Delete(ctx context.Context, path, token string) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Token: token})
	return err
}

// State reports the breaker state for readiness checks.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

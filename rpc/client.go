// Package rpc is a small client for the Tezos node RPC, covering what is
// needed to originate and call contracts and to follow blocks.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultRequestsPerSecond is the default rate limit towards the node.
	DefaultRequestsPerSecond = 10
	// DefaultMaxRetries bounds the retries of a failing GET request.
	DefaultMaxRetries = 5
)

// ErrDecode is returned when the node answer does not have the expected shape.
var ErrDecode = errors.New("could not decode node answer")

// Client talks to a single node.
type Client struct {
	BaseURL *url.URL
	// Chain is the chain alias used in paths, "main" by default.
	Chain string

	MaxRetries uint64

	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for the node at endpoint, e.g.
// https://ghostnet.ecadinfra.com. A nil httpClient uses http.DefaultClient.
func NewClient(endpoint string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(endpoint, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid node url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("invalid node url %q: unsupported scheme", endpoint)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		BaseURL:    u,
		Chain:      "main",
		MaxRetries: DefaultMaxRetries,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultRequestsPerSecond),
	}, nil
}

// SetRateLimit changes the number of requests per second sent to the node.
func (c *Client) SetRateLimit(perSecond float64, burst int) {
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (c *Client) chainPath(format string, args ...interface{}) string {
	return fmt.Sprintf("chains/%s/", c.Chain) + fmt.Sprintf(format, args...)
}

func (c *Client) blockPath(id BlockID, format string, args ...interface{}) string {
	return c.chainPath("blocks/%s/", id) + fmt.Sprintf(format, args...)
}

// Get fetches path and decodes the JSON answer into result. Transient
// failures are retried with an exponential backoff.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	eback := backoff.NewExponentialBackOff()
	eback.InitialInterval = 200 * time.Millisecond
	eback.MaxElapsedTime = 30 * time.Second
	boff := backoff.WithContext(backoff.WithMaxRetries(eback, c.MaxRetries), ctx)

	retry := func() error {
		err := c.do(ctx, http.MethodGet, path, nil, result)
		if err == nil || !isTransient(err) {
			return backoff.Permanent(err)
		}
		log.Debug().Err(err).Str("path", path).Msg("node request failed, will try again")
		return err
	}
	err := backoff.Retry(retry, boff)
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}

// Post sends body as JSON and decodes the answer into result. Posts are not
// retried.
func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "could not encode request")
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL.String()+"/"+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "could not read answer of %s", path)
	}
	if resp.StatusCode/100 != 2 {
		return newError(resp.StatusCode, path, data)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return errors.Wrapf(ErrDecode, "%s: %s", path, err)
	}
	return nil
}

func isTransient(err error) bool {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	if errors.Is(err, ErrDecode) {
		return false
	}
	// context cancellation is final, everything else is a transport error
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

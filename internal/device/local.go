package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"boiler_collector/internal/payload"
)

// Defaults of the thermostat's local API.
const (
	DefaultPort       = 10000
	DefaultRetries    = 3
	DefaultRetryPause = 2 * time.Second
	maxReplyBytes     = 1 << 20
	pairPath          = "/pair_message"
)

var errUnauthorized = errors.New("request rejected")

// LocalOptions configures a LocalClient.
type LocalOptions struct {
	Host        string
	Port        int
	Credentials Credentials
	// Info is the retrieve bitmask; zero means payload.InfoDefault.
	Info       int
	HTTPClient *http.Client
	Retries    int
	RetryPause time.Duration
	// Prober, when set, classifies failed requests as unreachable.
	Prober Prober
}

// LocalClient talks to the thermostat's HTTP API on the LAN. Pairing runs
// once and is remembered until a retrieve is refused (acc_status other than
// granted, or HTTP 401/403); the next Query then pairs again.
type LocalClient struct {
	opts LocalOptions
	url  string

	mu     sync.Mutex
	paired bool
}

// NewLocalClient validates opts and fills defaults.
func NewLocalClient(opts LocalOptions) (*LocalClient, error) {
	if opts.Host == "" {
		return nil, errors.New("local client: host is required")
	}
	if err := opts.Credentials.Validate(); err != nil {
		return nil, err
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.Info == 0 {
		opts.Info = payload.InfoDefault
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Retries <= 0 {
		opts.Retries = DefaultRetries
	}
	if opts.RetryPause <= 0 {
		opts.RetryPause = DefaultRetryPause
	}
	return &LocalClient{
		opts: opts,
		url:  "http://" + net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)) + pairPath,
	}, nil
}

// Query pairs if needed and returns the raw retrieve reply.
func (c *LocalClient) Query(ctx context.Context) ([]byte, error) {
	if err := c.Pair(ctx); err != nil {
		return nil, err
	}
	body, err := payload.EncodeRetrieveMessage(c.opts.Credentials.Account(), c.opts.Info)
	if err != nil {
		return nil, err
	}
	reply, err := c.post(ctx, "retrieve", body)
	if err != nil {
		if errors.Is(err, errUnauthorized) {
			c.unpair()
			return nil, &TransportError{Op: "retrieve", Target: c.url, Err: errors.Join(ErrAccessDenied, err)}
		}
		return nil, err
	}
	if status, ok := payload.RetrieveAccStatus(reply); ok && status != payload.AccessGranted {
		c.unpair()
		return nil, &TransportError{Op: "retrieve", Target: c.url, Err: accessError(status)}
	}
	return reply, nil
}

// unpair forgets a granted pairing so the next Query pairs again.
func (c *LocalClient) unpair() {
	c.mu.Lock()
	c.paired = false
	c.mu.Unlock()
}

func accessError(status int) error {
	switch status {
	case payload.AccessPending:
		return ErrPairingPending
	case payload.AccessDenied:
		return ErrAccessDenied
	default:
		return fmt.Errorf("unexpected acc_status %d", status)
	}
}

// Pair sends the pairing request until the thermostat has granted access once.
func (c *LocalClient) Pair(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paired {
		return nil
	}

	body, err := payload.EncodePairMessage(c.opts.Credentials.Account())
	if err != nil {
		return err
	}
	reply, err := c.post(ctx, "pair", body)
	if err != nil {
		return err
	}
	status, err := payload.ParsePairReply(reply)
	if err != nil {
		return &TransportError{Op: "pair", Target: c.url, Err: err}
	}

	if status != payload.AccessGranted {
		return &TransportError{Op: "pair", Target: c.url, Err: accessError(status)}
	}
	c.paired = true
	return nil
}

// post sends body with retries and returns the response bytes.
func (c *LocalClient) post(ctx context.Context, op string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.opts.Retries; attempt++ {
		reply, err := c.postOnce(ctx, body)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if errors.Is(err, errUnauthorized) || attempt == c.opts.Retries || ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(c.opts.RetryPause):
		}
	}
	return nil, c.transportError(ctx, op, lastErr)
}

func (c *LocalClient) postOnce(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("%w: %s", errUnauthorized, resp.Status)
		}
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
}

func (c *LocalClient) transportError(ctx context.Context, op string, err error) error {
	te := &TransportError{Op: op, Target: c.url, Err: err}
	if c.opts.Prober != nil && ctx.Err() == nil {
		if alive, _, _ := c.opts.Prober.Probe(ctx, c.opts.Host); !alive {
			te.Unreachable = true
		}
	}
	return te
}

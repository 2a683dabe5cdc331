package nim

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"time"

	"github.com/mashiike/nimcheck"
)

func init() {
	// Register the backend
	nimcheck.RegisterBackend("http", func(_ context.Context, cfg *nimcheck.EndpointConfig) (nimcheck.Client, error) {
		return NewFromConfig(cfg)
	})
}

const (
	chatCompletionsPath = "/v1/chat/completions"
	healthReadyPath     = "/v1/health/ready"
	healthCheckTimeout  = 10 * time.Second
	defaultPort         = 8000

	// streaming records can carry large base64 payloads
	maxScanTokenSize = 1 << 20
)

type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	StrictEOF  bool
}

// Client talks to a NIM container over plain HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	strictEOF  bool
}

func New(host string, port int, optFns ...func(*Options)) (*Client, error) {
	if host == "" {
		return nil, errors.New("host is required")
	}
	if port <= 0 {
		port = defaultPort
	}
	opts := Options{
		HTTPClient: http.DefaultClient,
		Timeout:    nimcheck.DefaultTimeout,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{
		baseURL:    fmt.Sprintf("http://%s:%d", host, port),
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
		strictEOF:  opts.StrictEOF,
	}, nil
}

func NewFromConfig(cfg *nimcheck.EndpointConfig) (*Client, error) {
	return New(cfg.Host, cfg.Port, func(o *Options) {
		o.Timeout = cfg.EffectiveTimeout()
		o.StrictEOF = cfg.StrictEOF
	})
}

func (c *Client) Invoke(ctx context.Context, req *nimcheck.Request) (*nimcheck.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.postChatCompletions(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &nimcheck.TransportError{Op: "read response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &nimcheck.ProtocolError{Reason: fmt.Sprintf("chat completions returned status %d", resp.StatusCode)}
	}
	return nimcheck.DecodeChatResponse(body)
}

func (c *Client) InvokeStream(ctx context.Context, req *nimcheck.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		streamReq := req.Clone()
		streamReq.Stream = true
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		resp, err := c.postChatCompletions(ctx, streamReq)
		if err != nil {
			yield("", err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			yield("", &nimcheck.ProtocolError{Reason: fmt.Sprintf("chat completions returned status %d", resp.StatusCode)})
			return
		}
		dec := nimcheck.NewStreamDecoder()
		sc := bufio.NewScanner(resp.Body)
		sc.Buffer(make([]byte, 0, 64*1024), maxScanTokenSize)
		for sc.Scan() {
			fragment, ok := dec.DecodeLine(sc.Text())
			if ok && !yield(fragment, nil) {
				return
			}
			if dec.Done() {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield("", &nimcheck.TransportError{Op: "read stream", Err: err})
			return
		}
		if c.strictEOF && !dec.Done() {
			yield("", nimcheck.ErrIncompleteStream)
		}
	}
}

func (c *Client) postChatCompletions(ctx context.Context, req *nimcheck.Request) (*http.Response, error) {
	wire, err := nimcheck.EncodeChatRequest(req)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	url := c.baseURL + chatCompletionsPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	slog.DebugContext(ctx, "chat completions", "url", url, "stream", req.Stream)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &nimcheck.TransportError{Op: "chat completions", Err: err}
	}
	return resp, nil
}

func (c *Client) HealthCheck(ctx context.Context) nimcheck.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthReadyPath, nil)
	if err != nil {
		return nimcheck.HealthStatus{Message: err.Error()}
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nimcheck.HealthStatus{Message: err.Error()}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return nimcheck.HealthStatus{Message: fmt.Sprintf("health check returned status %d", resp.StatusCode)}
	}
	return nimcheck.HealthStatus{Ready: true, Message: "NIM is ready"}
}

func (c *Client) EndpointInfo() string {
	return fmt.Sprintf("HTTP Endpoint: %s", c.baseURL)
}

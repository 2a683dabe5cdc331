package nim_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/mashiike/nimcheck"
	"github.com/mashiike/nimcheck/provider/nim"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, optFns ...func(*nim.Options)) *nim.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	client, err := nim.New(u.Hostname(), port, optFns...)
	require.NoError(t, err)
	return client
}

func TestClient__Invoke(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "nvidia/cosmos-reason1-7b", payload["model"])
		require.NotContains(t, payload, "stream")
		fmt.Fprint(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"A robot is a machine."},"finish_reason":"stop"}]}`)
	}))
	req, err := nimcheck.NewRequest("nvidia/cosmos-reason1-7b",
		nimcheck.UserMessage(nimcheck.TextPart("What is a robot?")),
	)
	require.NoError(t, err)
	resp, err := client.Invoke(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "A robot is a machine.", resp.Content())
}

func TestClient__InvokeProtocolError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>not json</html>`)
	}))
	req, err := nimcheck.NewRequest("m", nimcheck.UserMessage(nimcheck.TextPart("hi")))
	require.NoError(t, err)
	_, err = client.Invoke(context.Background(), req)
	var perr *nimcheck.ProtocolError
	require.ErrorAs(t, err, &perr)
}

func TestClient__InvokeTransportError(t *testing.T) {
	// a closed server port refuses connections
	server := httptest.NewServer(http.NotFoundHandler())
	u, _ := url.Parse(server.URL)
	port, _ := strconv.Atoi(u.Port())
	server.Close()
	client, err := nim.New(u.Hostname(), port)
	require.NoError(t, err)
	req, err := nimcheck.NewRequest("m", nimcheck.UserMessage(nimcheck.TextPart("hi")))
	require.NoError(t, err)
	_, err = client.Invoke(context.Background(), req)
	var terr *nimcheck.TransportError
	require.ErrorAs(t, err, &terr)
}

func TestClient__InvokeStream(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, true, payload["stream"])
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n")
	}))
	req, err := nimcheck.NewRequest("m", nimcheck.UserMessage(nimcheck.TextPart("hi")))
	require.NoError(t, err)
	fragments := []string{}
	for fragment, err := range client.InvokeStream(context.Background(), req) {
		require.NoError(t, err)
		fragments = append(fragments, fragment)
	}
	require.Equal(t, []string{"Hel", "lo"}, fragments)
	// the caller's request is untouched
	require.False(t, req.Stream)
}

func TestClient__InvokeStreamMalformedRecords(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, ": keep-alive\n")
		fmt.Fprint(w, "data: {broken\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n")
		fmt.Fprint(w, "data: [DONE]\n")
	}))
	req, err := nimcheck.NewRequest("m", nimcheck.UserMessage(nimcheck.TextPart("hi")))
	require.NoError(t, err)
	fragments := []string{}
	for fragment, err := range client.InvokeStream(context.Background(), req) {
		require.NoError(t, err)
		fragments = append(fragments, fragment)
	}
	require.Equal(t, []string{"ok"}, fragments)
}

func TestClient__InvokeStreamEarlyBreak(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for i := 0; i < 100; i++ {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"n%d \"}}]}\n", i)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n")
	}))
	req, err := nimcheck.NewRequest("m", nimcheck.UserMessage(nimcheck.TextPart("hi")))
	require.NoError(t, err)
	got := 0
	for _, err := range client.InvokeStream(context.Background(), req) {
		require.NoError(t, err)
		got++
		if got == 3 {
			break
		}
	}
	require.Equal(t, 3, got)
}

func TestClient__InvokeStreamWithoutDoneMarker(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n")
	})

	t.Run("default treats close as completion", func(t *testing.T) {
		client := newTestClient(t, handler)
		req, err := nimcheck.NewRequest("m", nimcheck.UserMessage(nimcheck.TextPart("hi")))
		require.NoError(t, err)
		fragments := []string{}
		for fragment, err := range client.InvokeStream(context.Background(), req) {
			require.NoError(t, err)
			fragments = append(fragments, fragment)
		}
		require.Equal(t, []string{"partial"}, fragments)
	})

	t.Run("strict eof surfaces incomplete stream", func(t *testing.T) {
		client := newTestClient(t, handler, func(o *nim.Options) {
			o.StrictEOF = true
		})
		req, err := nimcheck.NewRequest("m", nimcheck.UserMessage(nimcheck.TextPart("hi")))
		require.NoError(t, err)
		var lastErr error
		fragments := []string{}
		for fragment, err := range client.InvokeStream(context.Background(), req) {
			if err != nil {
				lastErr = err
				continue
			}
			fragments = append(fragments, fragment)
		}
		require.Equal(t, []string{"partial"}, fragments)
		require.ErrorIs(t, lastErr, nimcheck.ErrIncompleteStream)
	})
}

func TestClient__HealthCheck(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/v1/health/ready", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		status := client.HealthCheck(context.Background())
		require.True(t, status.Ready)
	})

	t.Run("not ready", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		status := client.HealthCheck(context.Background())
		require.False(t, status.Ready)
		require.Contains(t, status.Message, "503")
	})

	t.Run("unreachable never raises", func(t *testing.T) {
		client, err := nim.New("127.0.0.1", 1)
		require.NoError(t, err)
		status := client.HealthCheck(context.Background())
		require.False(t, status.Ready)
		require.NotEmpty(t, status.Message)
	})
}

func TestClient__EndpointInfo(t *testing.T) {
	client, err := nim.New("localhost", 8000)
	require.NoError(t, err)
	require.Equal(t, "HTTP Endpoint: http://localhost:8000", client.EndpointInfo())
}

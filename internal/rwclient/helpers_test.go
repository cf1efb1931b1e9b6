package rwclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"strqueue/internal/log"
	"strqueue/internal/queue"
	"strqueue/internal/queueapi"
)

type errorRoundTripper struct{ err error }

func (e errorRoundTripper) RoundTrip(*http.Request) (*http.Response, error) { return nil, e.err }

func newHTTPTestClient(tsURL string, rtErr error) *Client {
	c := New(tsURL, "q")
	if rtErr != nil {
		c.HttpClient = &http.Client{Transport: errorRoundTripper{err: rtErr}}
	}
	return c
}

// newServiceClient starts the real queue service and returns a client for
// the named queue on it.
func newServiceClient(t *testing.T, name string) (*Client, *queue.Manager) {
	t.Helper()
	m := queue.NewManager()
	ctx := log.WithLogger(context.Background(), log.NewEntry(io.Discard, logrus.InfoLevel))
	ts := httptest.NewServer(queueapi.RegisterRoutes(ctx, m))
	t.Cleanup(ts.Close)
	return New(ts.URL, name), m
}

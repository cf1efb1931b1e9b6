package queueapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strqueue/internal/harness"
	"strqueue/internal/log"
	"strqueue/internal/queue"
)

func newTestHandler(opts ...queue.Option) *Handler {
	return NewHandler(queue.NewManager(opts...), log.NewEntry(io.Discard, logrus.InfoLevel))
}

func pop(h *Handler, name string) (string, bool) {
	var (
		v  string
		ok bool
	)
	h.Manager.Lookup(name, func(q *queue.Queue) { v, ok = q.PopHead() })
	return v, ok
}

func TestHandler_Insert(t *testing.T) {
	cases := []struct {
		name        string
		queue       string
		headers     map[string]string
		body        io.Reader
		wantStatus  int
		wantInQueue []string
	}{
		{
			name:        "octet-stream valid",
			queue:       "q",
			headers:     map[string]string{"Content-Type": "application/octet-stream"},
			body:        bytes.NewBufferString("abc"),
			wantStatus:  http.StatusAccepted,
			wantInQueue: []string{"abc"},
		},
		{
			name:        "octet-stream empty is an empty value",
			queue:       "q",
			headers:     map[string]string{"Content-Type": "application/octet-stream"},
			body:        bytes.NewBuffer([]byte{}),
			wantStatus:  http.StatusAccepted,
			wantInQueue: []string{""},
		},
		{
			name:        "json valid",
			queue:       "q",
			headers:     map[string]string{"Content-Type": "application/json"},
			body:        bytes.NewBufferString(`{"value":"hello"}`),
			wantStatus:  http.StatusAccepted,
			wantInQueue: []string{"hello"},
		},
		{
			name:       "json missing value",
			queue:      "q",
			headers:    map[string]string{"Content-Type": "application/json"},
			body:       bytes.NewBufferString(`{}`),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "json malformed",
			queue:      "q",
			headers:    map[string]string{"Content-Type": "application/json"},
			body:       bytes.NewBufferString(`{"value":`),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing queue name",
			queue:      "",
			headers:    map[string]string{"Content-Type": "application/json"},
			body:       bytes.NewBufferString(`{"value":"x"}`),
			wantStatus: http.StatusBadRequest,
		},
	}
	e := echo.New()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h := newTestHandler()
			req := httptest.NewRequest(http.MethodPost, "/queues/"+c.queue+"/tail", c.body)
			for k, v := range c.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			ctx := e.NewContext(req, rec)
			ctx.SetParamNames("name")
			ctx.SetParamValues(c.queue)
			assert.NoError(t, h.InsertTail(ctx))
			assert.Equal(t, c.wantStatus, rec.Code, "status code")
			for _, want := range c.wantInQueue {
				got, ok := pop(h, c.queue)
				assert.True(t, ok)
				assert.Equal(t, want, got, "queue value")
			}
		})
	}
}

func TestHandler_InsertFailure(t *testing.T) {
	a := harness.New()
	h := newTestHandler(queue.WithAllocator(a))
	e := echo.New()
	a.FailNext(1)

	req := httptest.NewRequest(http.MethodPost, "/queues/q/head", bytes.NewBufferString("abc"))
	req.Header.Set("Content-Type", "application/octet-stream")
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("name")
	ctx.SetParamValues("q")
	assert.NoError(t, h.InsertHead(ctx))
	assert.Equal(t, http.StatusInsufficientStorage, rec.Code)
	assert.True(t, a.Balanced())
}

func TestHandler_RemoveHead(t *testing.T) {
	h := newTestHandler()
	e := echo.New()
	h.Manager.With("q", func(q *queue.Queue) {
		q.InsertTail([]byte("abcdef"))
		q.InsertTail([]byte("xyz"))
		q.InsertTail([]byte("last"))
	})

	cases := []struct {
		name       string
		queue      string
		query      string
		wantStatus int
		wantBody   string
	}{
		{"truncated by bufsize", "q", "?bufsize=4", http.StatusOK, "abc"},
		{"full value", "q", "", http.StatusOK, "xyz"},
		{"bad bufsize", "q", "?bufsize=x", http.StatusBadRequest, "invalid bufsize"},
		{"bufsize zero", "q", "?bufsize=0", http.StatusOK, ""},
		{"empty", "q", "", http.StatusNoContent, ""},
		{"unknown queue", "nope", "", http.StatusNoContent, ""},
		{"missing queue name", "", "", http.StatusBadRequest, "invalid queue name"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/queues/"+c.queue+"/head"+c.query, nil)
			rec := httptest.NewRecorder()
			ctx := e.NewContext(req, rec)
			ctx.SetParamNames("name")
			ctx.SetParamValues(c.queue)
			assert.NoError(t, h.RemoveHead(ctx))
			assert.Equal(t, c.wantStatus, rec.Code, "status code")
			assert.Equal(t, c.wantBody, rec.Body.String(), "body")
		})
	}
}

func TestRoutes(t *testing.T) {
	m := queue.NewManager()
	ctx := log.WithLogger(context.Background(), log.NewEntry(io.Discard, logrus.DebugLevel))
	ts := httptest.NewServer(NewEcho(ctx, m, "1K"))
	defer ts.Close()

	do := func(method, path, body string) *http.Response {
		t.Helper()
		var r io.Reader
		if body != "" {
			r = bytes.NewBufferString(body)
		}
		req, err := http.NewRequest(method, ts.URL+path, r)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/octet-stream")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}
	body := func(resp *http.Response) string {
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(b)
	}

	for _, v := range []string{"banana", "apple", "cherry"} {
		assert.Equal(t, http.StatusAccepted, do(http.MethodPost, "/queues/fruit/tail", v).StatusCode)
	}
	assert.Equal(t, http.StatusAccepted, do(http.MethodPost, "/queues/fruit/head", "kiwi").StatusCode)

	resp := do(http.MethodHead, "/queues/fruit", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "4", resp.Header.Get("X-Queue-Len"))

	var size SizeResponse
	require.NoError(t, json.Unmarshal([]byte(body(do(http.MethodGet, "/queues/fruit", ""))), &size))
	assert.Equal(t, SizeResponse{Name: "fruit", Size: 4}, size)

	var list ListResponse
	require.NoError(t, json.Unmarshal([]byte(body(do(http.MethodGet, "/queues", ""))), &list))
	assert.Equal(t, []string{"fruit"}, list.Queues)

	assert.Equal(t, http.StatusNoContent, do(http.MethodPost, "/queues/fruit/sort", "").StatusCode)
	assert.Equal(t, "apple", body(do(http.MethodDelete, "/queues/fruit/head", "")))

	assert.Equal(t, http.StatusNoContent, do(http.MethodPost, "/queues/fruit/reverse", "").StatusCode)
	assert.Equal(t, "kiwi", body(do(http.MethodDelete, "/queues/fruit/head", "")))

	large := string(bytes.Repeat([]byte("x"), 2048))
	assert.Equal(t, http.StatusRequestEntityTooLarge, do(http.MethodPost, "/queues/fruit/tail", large).StatusCode)

	assert.Equal(t, http.StatusNoContent, do(http.MethodDelete, "/queues/fruit", "").StatusCode)
	assert.Equal(t, http.StatusNotFound, do(http.MethodDelete, "/queues/fruit", "").StatusCode)
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/bad", "").StatusCode)
}

package rwclient

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

// ErrStatus is wrapped by every error caused by an unexpected response code.
var ErrStatus = errors.New("unexpected status")

type Client struct {
	QueueURL   string
	QueueName  string
	HttpClient *http.Client
}

func New(queueURL, queueName string) *Client {
	return &Client{
		QueueURL:   queueURL,
		QueueName:  queueName,
		HttpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) InsertHead(ctx context.Context, value []byte) error {
	return c.insert(ctx, "head", value)
}

func (c *Client) InsertTail(ctx context.Context, value []byte) error {
	return c.insert(ctx, "tail", value)
}

// RemoveHead removes the first element. A bufSize of zero or more asks the
// service to truncate the value as a buffer of that size would. ok is false
// when the queue was empty.
func (c *Client) RemoveHead(ctx context.Context, bufSize int) (value []byte, ok bool, err error) {
	u := c.url("head")
	if bufSize >= 0 {
		u += "?" + url.Values{"bufsize": {strconv.Itoa(bufSize)}}.Encode()
	}
	resp, err := c.do(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, err
		}
		return b, true, nil
	case http.StatusNoContent:
		return nil, false, nil
	default:
		return nil, false, statusError("remove head", resp)
	}
}

func (c *Client) QueueLength(ctx context.Context) (int, error) {
	resp, err := c.do(ctx, http.MethodHead, c.url(""), nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, statusError("queue length", resp)
	}
	h := resp.Header.Get("X-Queue-Len")
	if h == "" {
		return 0, fmt.Errorf("missing X-Queue-Len header")
	}
	n, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("invalid X-Queue-Len header: %w", err)
	}
	return n, nil
}

func (c *Client) Reverse(ctx context.Context) error {
	return c.expect(ctx, "reverse", http.MethodPost, c.url("reverse"), http.StatusNoContent)
}

func (c *Client) Sort(ctx context.Context) error {
	return c.expect(ctx, "sort", http.MethodPost, c.url("sort"), http.StatusNoContent)
}

// Drop frees the queue on the service. Dropping an unknown queue is not an
// error.
func (c *Client) Drop(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodDelete, c.url(""), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return statusError("drop", resp)
	}
	return nil
}

// Produce tail-inserts every line of the file, newline included. A final
// line without one gets a '\n' so reordering never joins two lines.
func (c *Client) Produce(ctx context.Context, inputPath string) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			if len(line) > 0 {
				return c.InsertTail(ctx, append(line, '\n'))
			}
			return nil
		}
		if err != nil {
			return err
		}
		if err := c.InsertTail(ctx, line); err != nil {
			return err
		}
	}
}

// Drain removes elements until the queue is empty, writing each to the file.
func (c *Client) Drain(ctx context.Context, outputPath string) (int, error) {
	f, err := os.Create(outputPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		msg, ok, err := c.RemoveHead(ctx, -1)
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		if _, err := f.Write(msg); err != nil {
			return n, err
		}
		n++
	}
}

func (c *Client) insert(ctx context.Context, end string, value []byte) error {
	resp, err := c.do(ctx, http.MethodPost, c.url(end), value)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return statusError("insert "+end, resp)
	}
	return nil
}

func (c *Client) expect(ctx context.Context, op, method, u string, want int) error {
	resp, err := c.do(ctx, method, u, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		return statusError(op, resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, u string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}
	return c.HttpClient.Do(req)
}

func (c *Client) url(suffix string) string {
	u := fmt.Sprintf("%s/queues/%s", c.QueueURL, url.PathEscape(c.QueueName))
	if suffix != "" {
		u += "/" + suffix
	}
	return u
}

func statusError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("%s failed: %w: %s: %s", op, ErrStatus, resp.Status, string(b))
}

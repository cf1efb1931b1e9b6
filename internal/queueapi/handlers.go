package queueapi

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"strqueue/internal/queue"
)

type InsertRequest struct {
	Value *string `json:"value"`
}

type SizeResponse struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type ListResponse struct {
	Queues []string `json:"queues"`
}

var errValueRequired = errors.New("value is required")

type Handler struct {
	Manager *queue.Manager
	Log     *logrus.Entry
}

func NewHandler(m *queue.Manager, logger *logrus.Entry) *Handler {
	return &Handler{Manager: m, Log: logger}
}

func (h *Handler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, ListResponse{Queues: h.Manager.Names()})
}

func (h *Handler) InsertHead(c echo.Context) error {
	return h.insert(c, true)
}

func (h *Handler) InsertTail(c echo.Context) error {
	return h.insert(c, false)
}

func (h *Handler) insert(c echo.Context, head bool) error {
	name := c.Param("name")
	if name == "" {
		return c.String(http.StatusBadRequest, "invalid queue name")
	}
	value, err := readValue(c)
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	var ok bool
	h.Manager.With(name, func(q *queue.Queue) {
		if head {
			ok = q.InsertHead(value)
		} else {
			ok = q.InsertTail(value)
		}
	})
	if !ok {
		h.Log.WithFields(logrus.Fields{"queue": name, "bytes": len(value), "head": head}).Warning("insert failed")
		return c.String(http.StatusInsufficientStorage, "insert failed")
	}
	return c.NoContent(http.StatusAccepted)
}

func readValue(c echo.Context) ([]byte, error) {
	if c.Request().Header.Get(echo.HeaderContentType) == echo.MIMEOctetStream {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return nil, errors.New("invalid request body")
		}
		if body == nil {
			body = []byte{}
		}
		return body, nil
	}
	var req InsertRequest
	if err := c.Bind(&req); err != nil {
		return nil, errors.New("invalid request body")
	}
	if req.Value == nil {
		return nil, errValueRequired
	}
	return []byte(*req.Value), nil
}

// RemoveHead responds with the removed value. With ?bufsize=N the value is
// what a buffer of N bytes would receive: at most N-1 bytes, cut at the
// terminator.
func (h *Handler) RemoveHead(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return c.String(http.StatusBadRequest, "invalid queue name")
	}
	bufSize := -1
	if raw := c.QueryParam("bufsize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.String(http.StatusBadRequest, "invalid bufsize")
		}
		bufSize = n
	}

	var (
		value []byte
		ok    bool
	)
	h.Manager.Lookup(name, func(q *queue.Queue) {
		if bufSize < 0 {
			var s string
			s, ok = q.PopHead()
			value = []byte(s)
			return
		}
		buf := make([]byte, bufSize)
		ok = q.RemoveHead(buf)
		value = terminated(buf)
	})
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.Blob(http.StatusOK, echo.MIMEOctetStream, value)
}

func terminated(buf []byte) []byte {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		return buf[:i]
	}
	return buf
}

func (h *Handler) size(name string) int {
	var n int
	h.Manager.Lookup(name, func(q *queue.Queue) { n = q.Size() })
	return n
}

func (h *Handler) Length(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return c.String(http.StatusBadRequest, "invalid queue name")
	}
	c.Response().Header().Set("X-Queue-Len", strconv.Itoa(h.size(name)))
	return c.NoContent(http.StatusOK)
}

func (h *Handler) Size(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return c.String(http.StatusBadRequest, "invalid queue name")
	}
	return c.JSON(http.StatusOK, SizeResponse{Name: name, Size: h.size(name)})
}

func (h *Handler) Reverse(c echo.Context) error {
	return h.reorder(c, (*queue.Queue).Reverse)
}

func (h *Handler) Sort(c echo.Context) error {
	return h.reorder(c, (*queue.Queue).Sort)
}

func (h *Handler) reorder(c echo.Context, fn func(q *queue.Queue)) error {
	name := c.Param("name")
	if name == "" {
		return c.String(http.StatusBadRequest, "invalid queue name")
	}
	h.Manager.Lookup(name, fn)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Drop(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return c.String(http.StatusBadRequest, "invalid queue name")
	}
	if !h.Manager.Drop(name) {
		return c.String(http.StatusNotFound, "queue not found")
	}
	return c.NoContent(http.StatusNoContent)
}

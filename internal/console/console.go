// Package console implements a line oriented interpreter that drives a single
// queue through the instrumented allocator.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"strqueue/internal/harness"
	"strqueue/internal/log"
	"strqueue/internal/queue"
)

const (
	defaultBufLen = 1024
	defaultSeed   = 1
)

var (
	errQuit   = errors.New("quit")
	errUsage  = errors.New("usage")
	errFailed = errors.New("operation failed")
)

type command struct {
	usage string
	run   func(c *Console, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"new":     {"new", (*Console).cmdNew},
		"free":    {"free", (*Console).cmdFree},
		"ih":      {"ih str [n]", (*Console).cmdInsertHead},
		"it":      {"it str [n]", (*Console).cmdInsertTail},
		"rh":      {"rh [expected]", (*Console).cmdRemove},
		"rhq":     {"rhq", (*Console).cmdRemoveQuiet},
		"size":    {"size [expected]", (*Console).cmdSize},
		"reverse": {"reverse", (*Console).cmdReverse},
		"sort":    {"sort", (*Console).cmdSort},
		"option":  {"option fail P | option length N | option malloc N", (*Console).cmdOption},
		"help":    {"help", (*Console).cmdHelp},
		"quit":    {"quit", func(*Console, []string) error { return errQuit }},
	}
}

type Console struct {
	out    io.Writer
	alloc  *harness.Allocator
	q      *queue.Queue
	bufLen int
	seed   int64
	errors int
}

type Option func(*Console)

// WithSeed sets the seed used when `option fail` changes the failure rate.
func WithSeed(seed int64) Option {
	return func(c *Console) { c.seed = seed }
}

func New(out io.Writer, alloc *harness.Allocator, opts ...Option) *Console {
	c := &Console{out: out, alloc: alloc, bufLen: defaultBufLen, seed: defaultSeed}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Errors returns the number of failed commands so far.
func (c *Console) Errors() int { return c.errors }

// Run executes every line of r, then frees the queue and checks for leaked
// blocks. It returns the number of errors.
func (c *Console) Run(ctx context.Context, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return c.errors, err
		}
		lineNo++
		err := c.Exec(scanner.Text())
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			log.Debug(ctx, "command failed", "line", lineNo, "err", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return c.errors, fmt.Errorf("read commands: %w", err)
	}
	c.finish()
	return c.errors, nil
}

// Exec runs a single command line. Blank lines and # comments are ignored.
func (c *Console) Exec(line string) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return c.fail("unknown command %q", args[0])
	}
	err := cmd.run(c, args[1:])
	if errors.Is(err, errUsage) {
		return c.fail("usage: %s", cmd.usage)
	}
	return err
}

func (c *Console) fail(format string, args ...interface{}) error {
	c.errors++
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(c.out, "ERROR: %s\n", msg)
	return fmt.Errorf("%w: %s", errFailed, msg)
}

func (c *Console) report(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *Console) finish() {
	c.q.Free()
	c.q = nil
	if n := c.alloc.Outstanding(); n > 0 {
		_ = c.fail("%d blocks still allocated (%d bytes)", n, c.alloc.OutstandingBytes())
	}
	for _, m := range c.alloc.Misuse() {
		_ = c.fail("%s", m)
	}
}

func (c *Console) cmdNew(args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	c.q.Free()
	c.q = queue.New(queue.WithAllocator(c.alloc))
	c.report("q = []")
	return nil
}

func (c *Console) cmdFree(args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	c.q.Free()
	c.q = nil
	c.report("q = NULL")
	return nil
}

func (c *Console) cmdInsertHead(args []string) error {
	return c.insert(args, "head", c.q.InsertHead)
}

func (c *Console) cmdInsertTail(args []string) error {
	return c.insert(args, "tail", c.q.InsertTail)
}

func (c *Console) insert(args []string, end string, insert func([]byte) bool) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	n := 1
	if len(args) == 2 {
		var err error
		if n, err = strconv.Atoi(args[1]); err != nil || n < 1 {
			return errUsage
		}
	}
	for i := 0; i < n; i++ {
		if !insert([]byte(args[0])) {
			return c.fail("insert at %s failed after %d of %d", end, i, n)
		}
	}
	c.report("inserted %q at %s x%d, size %d", args[0], end, n, c.q.Size())
	return nil
}

func (c *Console) cmdRemove(args []string) error {
	if len(args) > 1 {
		return errUsage
	}
	buf := make([]byte, c.bufLen)
	if !c.q.RemoveHead(buf) {
		if c.q == nil {
			return c.fail("remove from NULL queue")
		}
		return c.fail("remove from empty queue")
	}
	got := string(buf)
	if i := strings.IndexByte(got, 0); i >= 0 {
		got = got[:i]
	}
	c.report("removed %q", got)
	if len(args) == 1 && args[0] != got {
		return c.fail("removed %q, expected %q", got, args[0])
	}
	return nil
}

func (c *Console) cmdRemoveQuiet(args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	if !c.q.RemoveHead(nil) {
		return c.fail("remove from empty or NULL queue")
	}
	c.report("removed")
	return nil
}

func (c *Console) cmdSize(args []string) error {
	if len(args) > 1 {
		return errUsage
	}
	n := c.q.Size()
	c.report("size %d", n)
	if len(args) == 1 {
		want, err := strconv.Atoi(args[0])
		if err != nil {
			return errUsage
		}
		if want != n {
			return c.fail("size %d, expected %d", n, want)
		}
	}
	return nil
}

func (c *Console) cmdReverse(args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	c.q.Reverse()
	c.report("reversed")
	return nil
}

func (c *Console) cmdSort(args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	c.q.Sort()
	c.report("sorted")
	return nil
}

func (c *Console) cmdOption(args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	switch args[0] {
	case "fail":
		p, err := strconv.ParseFloat(args[1], 64)
		if err != nil || p < 0 || p > 1 {
			return errUsage
		}
		c.alloc.SetFailRate(p, c.seed)
	case "length":
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return errUsage
		}
		c.bufLen = n
	case "malloc":
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return errUsage
		}
		c.alloc.FailNext(n)
	default:
		return errUsage
	}
	c.report("%s = %s", args[0], args[1])
	return nil
}

func (c *Console) cmdHelp([]string) error {
	for _, name := range []string{"new", "free", "ih", "it", "rh", "rhq", "size", "reverse", "sort", "option", "help", "quit"} {
		c.report("  %s", commands[name].usage)
	}
	return nil
}

package notifications

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"kiteready/internal/readiness"
)

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiDim    = "\x1b[2m"
)

type severity string

const (
	severityError   severity = "error"
	severityWarning severity = "warning"
)

type consoleEntry struct {
	id       int
	severity severity
	title    string
	opts     readiness.Options
	handle   *handle
}

// Console renders notifications as text and turns typed input into button
// clicks. The newest open notification receives input.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	colorize bool
	nextID   int
	open     []*consoleEntry
	input    io.Reader
	feed     chan string
	readErr  error
}

// NewConsole creates a Console writing to out. Colour is enabled when out is
// a terminal.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out, colorize: isTerminal(out)}
}

func (c *Console) ShowError(title string, opts readiness.Options) readiness.Handle {
	return c.show(severityError, title, opts)
}

func (c *Console) ShowWarning(title string, opts readiness.Options) readiness.Handle {
	return c.show(severityWarning, title, opts)
}

func (c *Console) show(sev severity, title string, opts readiness.Options) readiness.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	entry := &consoleEntry{id: c.nextID, severity: sev, title: title, opts: opts}
	entry.handle = newHandle(func() { c.remove(entry) })
	c.open = append(c.open, entry)
	c.render(entry)
	return entry.handle
}

func (c *Console) render(entry *consoleEntry) {
	label := strings.ToUpper(string(entry.severity))
	header := fmt.Sprintf("[%d] %s: %s", entry.id, label, entry.title)
	if c.colorize {
		color := ansiYellow
		if entry.severity == severityError {
			color = ansiRed
		}
		header = color + ansiBold + header + ansiReset
	}
	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	if desc := strings.TrimSpace(entry.opts.Description); desc != "" {
		b.WriteString("    ")
		b.WriteString(desc)
		b.WriteByte('\n')
	}
	choices := make([]string, 0, len(entry.opts.Buttons)+1)
	for i, button := range entry.opts.Buttons {
		choices = append(choices, fmt.Sprintf("%d) %s", i+1, button.Text))
	}
	if entry.opts.Dismissable || len(entry.opts.Buttons) == 0 {
		choices = append(choices, "d) Dismiss")
	}
	hint := "    " + strings.Join(choices, "   ")
	if c.colorize {
		hint = ansiDim + hint + ansiReset
	}
	b.WriteString(hint)
	b.WriteByte('\n')
	_, _ = io.WriteString(c.out, b.String())
}

func (c *Console) remove(entry *consoleEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, open := range c.open {
		if open == entry {
			c.open = append(c.open[:i], c.open[i+1:]...)
			return
		}
	}
}

// Pending reports how many notifications are still open.
func (c *Console) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.open)
}

func (c *Console) newest() *consoleEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.open) == 0 {
		return nil
	}
	return c.open[len(c.open)-1]
}

// Handle applies one line of input: a button number clicks that button on
// the newest open notification and "d" dismisses it.
func (c *Console) Handle(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	entry := c.newest()
	if entry == nil {
		return fmt.Errorf("no open notification")
	}
	if strings.EqualFold(line, "d") {
		entry.handle.Dismiss()
		return nil
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(entry.opts.Buttons) {
		return fmt.Errorf("unknown choice %q for notification %d", line, entry.id)
	}
	button := entry.opts.Buttons[n-1]
	if button.OnClick != nil {
		button.OnClick(entry.handle)
	}
	return nil
}

// DismissAll dismisses every open notification, newest first.
func (c *Console) DismissAll() {
	for entry := c.newest(); entry != nil; entry = c.newest() {
		entry.handle.Dismiss()
	}
}

// Serve reads choices from in until no notification is open, in reaches
// EOF, or ctx is cancelled. afterInput runs after each handled line so the
// caller can wait for work the click started before Serve checks for open
// notifications again. EOF dismisses everything still open.
//
// The first Serve attaches a reader to in that outlives the call. Later Serve
// and Prompt calls continue from the next unread line, so input typed ahead
// of a prompt is kept.
func (c *Console) Serve(ctx context.Context, in io.Reader, afterInput func()) error {
	lines := c.attach(in)

	for c.Pending() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				c.DismissAll()
				if err := c.inputErr(); err != nil {
					return fmt.Errorf("read notification input: %w", err)
				}
				return nil
			}
			if err := c.Handle(line); err != nil {
				c.printf("%v\n", err)
				continue
			}
			if afterInput != nil {
				afterInput()
			}
		}
	}
	return nil
}

// attach returns the line feed for in, starting its reader on first use.
func (c *Console) attach(in io.Reader) <-chan string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.feed != nil && c.input == in {
		return c.feed
	}

	lines := make(chan string)
	c.input = in
	c.feed = lines
	c.readErr = nil
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		c.mu.Lock()
		c.readErr = scanner.Err()
		c.mu.Unlock()
		close(lines)
	}()
	return lines
}

func (c *Console) inputErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readErr
}

// ErrNotServing is returned by Prompt before Serve has attached an input.
var ErrNotServing = errors.New("console is not reading input")

// Prompt writes label and returns the next line of the input attached by
// Serve. Input closing before a line arrives returns io.EOF.
func (c *Console) Prompt(ctx context.Context, label string) (string, error) {
	c.mu.Lock()
	feed := c.feed
	c.mu.Unlock()
	if feed == nil {
		return "", ErrNotServing
	}

	c.printf("%s", label)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-feed:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

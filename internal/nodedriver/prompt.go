package nodedriver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"feditest/internal/testplan"

	"github.com/chzyer/readline"
)

// ErrPromptAborted is returned when the tester interrupts a prompt.
var ErrPromptAborted = errors.New("prompt aborted by tester")

// LineReader reads one line of input after showing a prompt.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// Prompter asks the tester for information a driver cannot obtain on its
// own, such as the hostname of a manually deployed server.
type Prompter struct {
	mu     sync.Mutex
	reader LineReader
	out    io.Writer
	before func()
	after  func()
}

// NewPrompter creates a prompter reading from reader and writing input
// errors to out.
func NewPrompter(reader LineReader, out io.Writer) *Prompter {
	return &Prompter{reader: reader, out: out}
}

// NewConsolePrompter creates a prompter that talks to the terminal.
func NewConsolePrompter() *Prompter {
	return NewPrompter(&consoleReader{}, os.Stderr)
}

// AroundPrompt registers functions called before and after the tester is
// asked anything, for example to pause a progress display that shares the
// terminal. Either may be nil.
func (p *Prompter) AroundPrompt(before, after func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.before, p.after = before, after
}

// Prompt returns known if it is non-empty. Otherwise it asks question
// until validate accepts the answer and returns the normalized answer. A
// nil validate accepts anything.
func (p *Prompter) Prompt(question, known string, validate testplan.Validator) (string, error) {
	if known != "" {
		return known, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.before != nil {
		p.before()
	}
	if p.after != nil {
		defer p.after()
	}

	for {
		line, err := p.reader.ReadLine("TESTER ACTION REQUIRED: " + question)
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if validate == nil {
			return line, nil
		}
		if normalized, ok := validate(line); ok {
			return normalized, nil
		}
		fmt.Fprintf(p.out, "INPUT ERROR: invalid input, try again. Was: %q\n", line)
	}
}

// consoleReader opens the readline instance on first use.
type consoleReader struct {
	rl *readline.Instance
}

func (c *consoleReader) ReadLine(prompt string) (string, error) {
	if c.rl == nil {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          prompt,
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
			Stdout:          os.Stderr,
		})
		if err != nil {
			return "", fmt.Errorf("failed to create readline instance: %w", err)
		}
		c.rl = rl
	}
	c.rl.SetPrompt(prompt)

	line, err := c.rl.Readline()
	switch {
	case errors.Is(err, readline.ErrInterrupt):
		return "", ErrPromptAborted
	case errors.Is(err, io.EOF):
		return "", fmt.Errorf("%w: end of input", ErrPromptAborted)
	case err != nil:
		return "", fmt.Errorf("readline error: %w", err)
	}
	return line, nil
}

package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/VelixarAi/velixar-client/internal/commands"
)

var _ commands.Host = (*terminalHost)(nil)

// terminalHost renders command interactions on a line-oriented terminal.
// Answers given as flags are queued ahead of the interactive input.
type terminalHost struct {
	in        *bufio.Reader
	out       io.Writer
	errOut    io.Writer
	selection *string
	tempDir   string
}

func newTerminalHost(in io.Reader, out, errOut io.Writer) *terminalHost {
	return &terminalHost{in: bufio.NewReader(in), out: out, errOut: errOut}
}

// prefill queues answers for the next prompts, in order.
func (h *terminalHost) prefill(answers ...string) {
	if len(answers) == 0 {
		return
	}
	queued := strings.Join(answers, "\n") + "\n"
	h.in = bufio.NewReader(io.MultiReader(strings.NewReader(queued), h.in))
}

// setSelection makes text the content StoreMemory acts on.
func (h *terminalHost) setSelection(text string) { h.selection = &text }

func (h *terminalHost) Notify(msg string) { fmt.Fprintln(h.errOut, msg) }
func (h *terminalHost) Warn(msg string)   { fmt.Fprintln(h.errOut, "warning: "+msg) }
func (h *terminalHost) Error(msg string)  { fmt.Fprintln(h.errOut, "error: "+msg) }

func (h *terminalHost) readLine() (string, bool, error) {
	line, err := h.in.ReadString('\n')
	if errors.Is(err, io.EOF) {
		if line == "" {
			return "", false, nil
		}
		err = nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimRight(line, "\r\n"), true, nil
}

func (h *terminalHost) Prompt(ctx context.Context, opts commands.PromptOptions) (string, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}
		label := opts.Prompt
		if opts.Value != "" {
			label += " [" + opts.Value + "]"
		} else if opts.Placeholder != "" {
			label += " (" + opts.Placeholder + ")"
		}
		fmt.Fprint(h.errOut, label+": ")

		v, ok, err := h.readLine()
		if err != nil || !ok {
			return "", false, err
		}
		if v == "" && opts.Value != "" {
			v = opts.Value
		}
		if opts.Validate != nil {
			if msg := opts.Validate(v); msg != "" {
				fmt.Fprintln(h.errOut, msg)
				continue
			}
		}
		return v, true, nil
	}
}

func (h *terminalHost) Confirm(ctx context.Context, message, action string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(h.errOut, "%s [%s/N]: ", message, strings.ToLower(action))
	v, ok, err := h.readLine()
	if err != nil || !ok {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "y", "yes", strings.ToLower(action):
		return true, nil
	}
	return false, nil
}

func (h *terminalHost) Pick(ctx context.Context, placeholder string, items []commands.PickItem) (int, bool, error) {
	fmt.Fprintln(h.errOut, placeholder)
	for i, it := range items {
		fmt.Fprintf(h.errOut, "%3d. %s\n", i+1, it.Label)
		if it.Detail != "" {
			fmt.Fprintf(h.errOut, "     %s\n", it.Detail)
		}
	}
	for {
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}
		fmt.Fprint(h.errOut, "Choose a number (empty to cancel): ")
		v, ok, err := h.readLine()
		if err != nil || !ok {
			return 0, false, err
		}
		v = strings.TrimSpace(v)
		if v == "" {
			return 0, false, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > len(items) {
			fmt.Fprintf(h.errOut, "enter a number between 1 and %d\n", len(items))
			continue
		}
		return n - 1, true, nil
	}
}

// Clipboard uses the OSC 52 escape on a terminal and prints the text otherwise.
func (h *terminalHost) Clipboard(_ context.Context, text string) error {
	if isTerminal(h.out) {
		_, err := fmt.Fprintf(h.out, "\x1b]52;c;%s\a", base64.StdEncoding.EncodeToString([]byte(text)))
		return err
	}
	_, err := fmt.Fprintln(h.out, text)
	return err
}

// InsertAtCursor writes to stdout, the CLI's cursor.
func (h *terminalHost) InsertAtCursor(_ context.Context, text string) error {
	_, err := fmt.Fprintln(h.out, text)
	return err
}

// OpenDocument writes content to a temporary file and prints its path.
func (h *terminalHost) OpenDocument(_ context.Context, content, language string) error {
	ext := ".txt"
	if language == "markdown" {
		ext = ".md"
	}
	f, err := os.CreateTemp(h.tempDir, "velixar-*"+ext)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_, err = fmt.Fprintln(h.out, f.Name())
	return err
}

func (h *terminalHost) Selection(context.Context) (string, bool) {
	if h.selection == nil {
		return "", false
	}
	return *h.selection, true
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

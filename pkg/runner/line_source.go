package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/input"
	"github.com/aretw0/vaudio/pkg/ports"
)

// LineSource reads one instruction per line, for pipes, scripts and plain terminals.
//
//	3+4                          a command, dispatched immediately
//	voice {"transcript":"yes"}   a raw device event
//	w                            anything else is a keyboard key
//
// Blank lines and lines starting with '#' are ignored.
type LineSource struct {
	Reader io.Reader
	Writer io.Writer
	Prompt string
}

// NewLineSource creates a source reading r. Feedback goes to w when it is not nil.
func NewLineSource(r io.Reader, w io.Writer) *LineSource {
	if r == nil {
		r = os.Stdin
	}
	return &LineSource{Reader: r, Writer: w}
}

type lineResult struct {
	text string
	err  error
}

// Run reads until EOF (returned as io.EOF) or until ctx is done.
func (s *LineSource) Run(ctx context.Context, c ports.Controller) error {
	lines := make(chan lineResult)
	go s.pump(ctx, lines)

	for {
		s.prompt()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-lines:
			if res.err != nil {
				return res.err
			}
			if err := s.handle(ctx, c, res.text); err != nil {
				if errors.Is(err, domain.ErrResolverStopped) {
					return nil
				}
				s.feedback("%v", err)
			}
		}
	}
}

// pump moves blocking reads off the select loop.
func (s *LineSource) pump(ctx context.Context, out chan<- lineResult) {
	scanner := bufio.NewScanner(s.Reader)
	for scanner.Scan() {
		select {
		case out <- lineResult{text: scanner.Text()}:
		case <-ctx.Done():
			return
		}
	}
	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	select {
	case out <- lineResult{err: err}:
	case <-ctx.Done():
	}
}

func (s *LineSource) handle(ctx context.Context, c ports.Controller, raw string) error {
	line, err := SanitizeLine(raw)
	if err != nil {
		return err
	}
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	if key, err := domain.ParseCommandKey(line); err == nil {
		return c.Force(key)
	}

	device, payload, ok := strings.Cut(line, " ")
	if ok && strings.HasPrefix(strings.TrimSpace(payload), "{") {
		if _, known := deviceNames[strings.ToLower(device)]; known {
			return s.input(ctx, c, strings.ToLower(device), []byte(strings.TrimSpace(payload)))
		}
	}

	ev, err := json.Marshal(input.KeyEvent{Key: line})
	if err != nil {
		return err
	}
	return s.input(ctx, c, input.DeviceKeyboard, ev)
}

func (s *LineSource) input(ctx context.Context, c ports.Controller, device string, payload []byte) error {
	sig, err := c.Input(ctx, device, payload)
	if err != nil {
		return err
	}
	if sig == domain.SignalNone {
		s.feedback("unmapped %s input", device)
	}
	return nil
}

var deviceNames = map[string]struct{}{
	input.DeviceKeyboard:   {},
	input.DevicePointer:    {},
	input.DeviceController: {},
	input.DeviceTouch:      {},
	input.DeviceVoice:      {},
	"mouse":                {},
	"gamepad":              {},
}

func (s *LineSource) prompt() {
	if s.Writer != nil && s.Prompt != "" {
		fmt.Fprint(s.Writer, s.Prompt)
	}
}

func (s *LineSource) feedback(format string, args ...any) {
	if s.Writer != nil {
		fmt.Fprintf(s.Writer, "? "+format+"\n", args...)
	}
}

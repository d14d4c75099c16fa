// Package console delivers single-character operator commands from a
// line-oriented input: a serial port on deployed docks, stdin during
// development. Every byte on a line is a candidate command; unknown bytes
// are ignored.
package console

import (
	"bufio"
	"io"
	"sync"

	"github.com/harborlabs/dockscale/internal/domain"
	"github.com/harborlabs/dockscale/internal/ports"
	"github.com/harborlabs/dockscale/pkg/log"
)

// DefaultBufferSize is the command channel capacity. Commands beyond it
// are dropped with a warning; the operator can retype a keystroke, the
// agent must not queue stale ones.
const DefaultBufferSize = 16

// Source reads commands from a line-oriented stream.
type Source struct {
	commands  chan domain.Command
	logger    log.Logger
	closer    io.Closer
	done      chan struct{}
	closeOnce sync.Once
}

// NewReader starts a source reading from r. If r is an io.Closer it is
// closed when the source closes, which also unblocks the read loop.
func NewReader(r io.Reader, logger log.Logger) *Source {
	s := &Source{
		commands: make(chan domain.Command, DefaultBufferSize),
		logger:   logger,
		done:     make(chan struct{}),
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	go s.readLoop(r)
	return s
}

// Commands returns the channel commands arrive on. Closed when the
// source shuts down or the stream ends.
func (s *Source) Commands() <-chan domain.Command {
	return s.commands
}

// Close stops the source. Safe to call more than once.
func (s *Source) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if s.closer != nil {
			err = s.closer.Close()
		}
	})
	return err
}

func (s *Source) readLoop(r io.Reader) {
	defer close(s.commands)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case <-s.done:
			return
		default:
		}

		for _, b := range scanner.Bytes() {
			cmd, ok := domain.ParseCommand(b)
			if !ok {
				if b != ' ' && b != '\r' {
					s.logger.Debug("ignoring unknown command byte",
						log.String("byte", string(b)))
				}
				continue
			}
			select {
			case s.commands <- cmd:
			default:
				s.logger.Warn("command dropped, agent not keeping up",
					log.String("command", cmd.String()))
			}
		}
	}

	if err := scanner.Err(); err != nil {
		select {
		case <-s.done:
			// Deliberate close; the read error is expected.
		default:
			s.logger.Warn("command source read error", log.Err(err))
		}
	}
}

var _ ports.CommandSource = (*Source)(nil)

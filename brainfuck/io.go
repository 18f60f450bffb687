package brainfuck

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrEndOfInput error = errors.New("Read past end of input")

type EOIMode uint8

const (
	// EOIEmit substitutes a fixed byte for every read once input runs out.
	EOIEmit EOIMode = iota
	// EOIFail makes a read past the end of input abort the run.
	EOIFail
)

func ParseEOIMode(s string) (EOIMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "emit":
		return EOIEmit, nil
	case "fail":
		return EOIFail, nil
	}
	return EOIEmit, fmt.Errorf("Unknown end of input mode [%s]. Expected [emit] or [fail]", s)
}

func (m EOIMode) String() string {
	if m == EOIFail {
		return "fail"
	}
	return "emit"
}

func (m EOIMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *EOIMode) UnmarshalText(text []byte) error {
	mode, err := ParseEOIMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// EOIPolicy decides what a read sees after the input is exhausted.
type EOIPolicy struct {
	Mode EOIMode
	Byte uint8
}

// IO is what a running program reads from and writes to. A nil Input behaves
// as an empty stream and a nil Output discards everything.
type IO struct {
	Input  io.Reader
	Output io.Writer
	EOI    EOIPolicy
}

type programIO struct {
	in        io.Reader
	out       *bufio.Writer
	eoi       EOIPolicy
	exhausted bool
	buf       [1]byte
}

func newProgramIO(pio IO) *programIO {
	out := pio.Output
	if out == nil {
		out = io.Discard
	}
	return &programIO{
		in:        pio.Input,
		out:       bufio.NewWriter(out),
		eoi:       pio.EOI,
		exhausted: pio.Input == nil,
	}
}

// ReadByte flushes pending output first so interactive programs show their
// prompt before blocking.
func (p *programIO) ReadByte() (byte, error) {
	if err := p.out.Flush(); err != nil {
		return 0, err
	}
	if !p.exhausted {
		_, err := io.ReadFull(p.in, p.buf[:])
		switch {
		case err == nil:
			return p.buf[0], nil
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			p.exhausted = true
		default:
			return 0, err
		}
	}
	if p.eoi.Mode == EOIFail {
		return 0, ErrEndOfInput
	}
	return p.eoi.Byte, nil
}

func (p *programIO) WriteByte(b byte) error {
	return p.out.WriteByte(b)
}

func (p *programIO) Flush() error {
	return p.out.Flush()
}

type cycleReader struct {
	data []byte
	pos  int
}

// CycleReader returns a reader that repeats data forever. An empty slice
// reads as an immediately exhausted stream.
func CycleReader(data []byte) io.Reader {
	return &cycleReader{data: data}
}

func (c *cycleReader) Read(buf []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	for i := range buf {
		buf[i] = c.data[c.pos]
		c.pos = (c.pos + 1) % len(c.data)
	}
	return len(buf), nil
}

type zeroReader struct{}

// ZeroReader returns a reader that only ever yields 0 bytes.
func ZeroReader() io.Reader {
	return zeroReader{}
}

func (zeroReader) Read(buf []byte) (int, error) {
	for i := range buf {
		buf[i] = 0
	}
	return len(buf), nil
}

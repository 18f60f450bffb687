package brainfuck

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestParseEOIMode(t *testing.T) {
	cases := map[string]EOIMode{"": EOIEmit, "emit": EOIEmit, " FAIL ": EOIFail}
	for s, expected := range cases {
		mode, err := ParseEOIMode(s)
		if err != nil {
			t.Errorf("Unexpected failure calling ParseEOIMode(%q). %v", s, err)
		}
		if mode != expected {
			t.Errorf("ParseEOIMode(%q) gave [%s], expected [%s]", s, mode, expected)
		}
	}
	if _, err := ParseEOIMode("wrap"); err == nil {
		t.Errorf("ParseEOIMode accepted an unknown mode")
	}

	var m EOIMode
	if err := m.UnmarshalText([]byte("fail")); err != nil || m != EOIFail {
		t.Errorf("UnmarshalText gave [%s, %v]", m, err)
	}
	if text, _ := m.MarshalText(); string(text) != "fail" {
		t.Errorf("MarshalText gave [%s]", text)
	}
}

func TestCycleReader(t *testing.T) {
	buf := make([]byte, 7)
	if _, err := io.ReadFull(CycleReader([]byte("abc")), buf); err != nil {
		t.Fatalf("Unexpected failure reading CycleReader. %v", err)
	}
	if string(buf) != "abcabca" {
		t.Errorf("CycleReader produced [%s]", buf)
	}
	if n, err := CycleReader(nil).Read(buf); n != 0 || err != io.EOF {
		t.Errorf("Empty CycleReader returned [%d, %v]", n, err)
	}

	out, err := Execute(mustCompile(t, ",.,.,.,."), nil, nil)
	if err != nil || !bytes.Equal(out, []byte{0, 0, 0, 0}) {
		t.Errorf("Reading without input gave [%v, %v]", out, err)
	}
}

type orderRecorder struct {
	events []string
}

func (o *orderRecorder) Write(p []byte) (int, error) {
	o.events = append(o.events, "write:"+string(p))
	return len(p), nil
}

func (o *orderRecorder) Read(p []byte) (int, error) {
	o.events = append(o.events, "read")
	p[0] = '!'
	return 1, nil
}

func TestOutputFlushedBeforeRead(t *testing.T) {
	rec := &orderRecorder{}
	m := NewMachine(&MachineConfig{TapeLength: 8})
	m.LoadProgram(mustCompile(t, strings.Repeat("+", '?')+".,."))
	if err := m.Run(IO{Input: rec, Output: rec}); err != nil {
		t.Fatalf("Unexpected failure calling Run(). %v", err)
	}
	expected := []string{"write:?", "read", "write:!"}
	if len(rec.events) != len(expected) {
		t.Fatalf("Events %v are not %v", rec.events, expected)
	}
	for i := range expected {
		if rec.events[i] != expected[i] {
			t.Errorf("Event [%d] is [%s], expected [%s]", i, rec.events[i], expected[i])
		}
	}
}

func TestZeroReader(t *testing.T) {
	out, err := Execute(mustCompile(t, "+,."), nil, nil)
	if err != nil {
		t.Fatalf("Unexpected failure calling Execute(). %v", err)
	}
	if !bytes.Equal(out, []byte{0}) {
		t.Errorf("Output [%v] is not [0]", out)
	}

	m := NewMachine(&MachineConfig{EOIMode: EOIFail})
	m.LoadProgram(mustCompile(t, ",,,."))
	var sink bytes.Buffer
	if err := m.Run(IO{Input: ZeroReader(), Output: &sink, EOI: m.Config.EOIPolicy()}); err != nil {
		t.Errorf("ZeroReader ran out of input. %v", err)
	}
}

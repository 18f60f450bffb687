package brainfuck

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"os"
	"strings"
	"testing"
	"time"
)

func TestMachineWritesCell(t *testing.T) {
	out, err := Execute(mustCompile(t, "+++."), nil, nil)
	if err != nil {
		t.Fatalf("Unexpected failure calling Execute(). %v", err)
	}
	if !bytes.Equal(out, []byte{3}) {
		t.Errorf("Output [%v] is not [3]", out)
	}
}

func TestMachinePreloadedMemory(t *testing.T) {
	m := NewMachine(&MachineConfig{TapeLength: 16})
	if ok, err := m.LoadMemory([]uint8{5}); !ok || err != nil {
		t.Fatalf("Unexpected failure calling LoadMemory(). %v", err)
	}
	m.LoadProgram(mustOptimize(t, mustCompile(t, "[->+<]>.")))

	var out bytes.Buffer
	if err := m.Run(IO{Output: &out}); err != nil {
		t.Fatalf("Unexpected failure calling Run(). %v", err)
	}
	if !bytes.Equal(out.Bytes(), []byte{5}) {
		t.Errorf("Output [%v] is not [5]", out.Bytes())
	}
	ok, cells, err := m.ReadMemory(2)
	if !ok || err != nil {
		t.Fatalf("Unexpected failure calling ReadMemory(). %v", err)
	}
	if cells[0] != 0 || cells[1] != 5 {
		t.Errorf("Memory [%v] is not [0 5]", cells)
	}

	if ok, err := m.LoadMemory(make([]uint8, 17)); ok || err == nil {
		t.Errorf("Loading more cells than the tape holds succeeded")
	}
	if ok, _, err := m.ReadMemory(17); ok || err == nil {
		t.Errorf("Reading more cells than the tape holds succeeded")
	}
}

func TestMachineHelloWorld(t *testing.T) {
	src, err := os.ReadFile("../testdata/hello.b")
	if err != nil {
		t.Fatalf("Unexpected failure reading fixture. %v", err)
	}
	expected := "\x00Hello World! 255\n"

	raw, err := CompileString(string(src))
	if err != nil {
		t.Fatalf("Unexpected failure calling CompileString(). %v", err)
	}
	for name, p := range map[string]Program{"fused": raw, "optimized": mustOptimize(t, raw)} {
		out, err := Execute(p, nil, nil)
		if err != nil {
			t.Fatalf("Unexpected failure running %s program. %v", name, err)
		}
		if string(out) != expected {
			t.Errorf("%s program printed [%q], expected [%q]", name, out, expected)
		}
	}
}

func TestMachineRingTape(t *testing.T) {
	m := NewMachine(&MachineConfig{TapeLength: 8})
	m.LoadProgram(mustCompile(t, "<+"))
	if err := m.Run(IO{}); err != nil {
		t.Fatalf("Unexpected failure calling Run(). %v", err)
	}
	if m.Memory.MemoryPointer != 7 || m.Memory.Cells[7] != 1 {
		t.Errorf("Moving left of cell 0 gave %v with cells %v", m.Memory, m.Memory.Cells)
	}

	m.Reset()
	m.LoadProgram(mustCompile(t, strings.Repeat(">", 8)+"+"))
	if err := m.Run(IO{}); err != nil {
		t.Fatalf("Unexpected failure calling Run(). %v", err)
	}
	if m.Memory.MemoryPointer != 0 || m.Memory.Cells[0] != 1 {
		t.Errorf("Moving a full lap gave %v with cells %v", m.Memory, m.Memory.Cells)
	}

	m.Memory.MemoryPointer = 3
	if i := m.Memory.Index(-13); i != 6 {
		t.Errorf("Index(-13) from 3 on a tape of 8 is [%d], expected 6", i)
	}
}

func TestMachineCellWraps(t *testing.T) {
	out, err := Execute(mustCompile(t, "-.+."), nil, nil)
	if err != nil {
		t.Fatalf("Unexpected failure calling Execute(). %v", err)
	}
	if !bytes.Equal(out, []byte{255, 0}) {
		t.Errorf("Output [%v] is not [255 0]", out)
	}
}

func TestMachineEndOfInput(t *testing.T) {
	p := mustCompile(t, ",.,.")

	out, err := Execute(p, []byte{'a'}, &MachineConfig{EOIMode: EOIEmit, EOIByte: 7})
	if err != nil {
		t.Fatalf("Unexpected failure calling Execute(). %v", err)
	}
	if !bytes.Equal(out, []byte{'a', 7}) {
		t.Errorf("Output [%v] is not [a 7]", out)
	}

	out, err = Execute(p, []byte{'a'}, &MachineConfig{EOIMode: EOIFail})
	if !errors.Is(err, ErrEndOfInput) {
		t.Fatalf("Expected ErrEndOfInput, got [%v]", err)
	}
	if !bytes.Equal(out, []byte{'a'}) {
		t.Errorf("Output before the failed read [%v] is not [a]", out)
	}
}

type eofThenData struct {
	calls int
}

// Read reports EOF once, then pretends more data arrived.
func (r *eofThenData) Read(buf []byte) (int, error) {
	r.calls++
	if r.calls == 1 {
		return 0, io.EOF
	}
	buf[0] = 'x'
	return 1, nil
}

func TestMachineEndOfInputIsSticky(t *testing.T) {
	r := &eofThenData{}
	m := NewMachine(&MachineConfig{TapeLength: 16})
	m.LoadProgram(mustCompile(t, ",.,."))
	var out bytes.Buffer
	if err := m.Run(IO{Input: r, Output: &out, EOI: EOIPolicy{Byte: 9}}); err != nil {
		t.Fatalf("Unexpected failure calling Run(). %v", err)
	}
	if !bytes.Equal(out.Bytes(), []byte{9, 9}) {
		t.Errorf("Output [%v] is not [9 9]", out.Bytes())
	}
	if r.calls != 1 {
		t.Errorf("Input was read [%d] times after reporting EOF", r.calls)
	}
}

type brokenSink struct{}

var errBrokenSink = errors.New("broken sink")

func (brokenSink) Write([]byte) (int, error) {
	return 0, errBrokenSink
}

func TestMachineWriteError(t *testing.T) {
	m := NewMachine(nil)
	m.LoadProgram(mustCompile(t, "+."))
	if err := m.Run(IO{Output: brokenSink{}}); !errors.Is(err, errBrokenSink) {
		t.Errorf("Expected the sink's error, got [%v]", err)
	}

	m.Reset()
	m.LoadProgram(mustCompile(t, "+.,"))
	err := m.Run(IO{Input: ZeroReader(), Output: brokenSink{}})
	if !errors.Is(err, errBrokenSink) {
		t.Errorf("Expected the sink's error when flushing before a read, got [%v]", err)
	}
}

func TestMachineInstructionLimit(t *testing.T) {
	p := mustCompile(t, "+.+.")
	if _, err := Execute(p, nil, &MachineConfig{MaxInstructionExecutionCount: 4}); err != nil {
		t.Errorf("Program of exactly the limit failed. %v", err)
	}
	out, err := Execute(p, nil, &MachineConfig{MaxInstructionExecutionCount: 3})
	if !errors.Is(err, ErrMaxInstructionExecutionCountReached) {
		t.Errorf("Expected ErrMaxInstructionExecutionCountReached, got [%v]", err)
	}
	if !bytes.Equal(out, []byte{1}) {
		t.Errorf("Output before the limit [%v] is not [1]", out)
	}

	m := NewMachine(&MachineConfig{MaxInstructionExecutionCount: 1000})
	m.LoadProgram(mustCompile(t, "+[]"))
	if err := m.Run(IO{}); !errors.Is(err, ErrMaxInstructionExecutionCountReached) {
		t.Errorf("Expected an endless loop to hit the limit, got [%v]", err)
	}
	if m.InstructionCount != 1000 {
		t.Errorf("InstructionCount [%d] is not 1000", m.InstructionCount)
	}
}

func TestMachineRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := ExecuteContext(ctx, mustCompile(t, "+.[]"), nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got [%v]", err)
	}
	if len(out) != 0 {
		t.Errorf("Cancelled run wrote [%v]", out)
	}
}

func TestMachineRunContextStopsEndlessLoop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	m := NewMachine(nil)
	m.LoadProgram(mustCompile(t, "+[]"))

	done := make(chan error, 1)
	go func() { done <- m.RunContext(ctx, IO{}) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Expected context.DeadlineExceeded, got [%v]", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("RunContext() did not return after its deadline")
	}
	if m.InstructionCount < CONTEXT_CHECK_INTERVAL {
		t.Errorf("Machine stopped after only [%d] instructions", m.InstructionCount)
	}
}

func TestMachineRunWithoutProgram(t *testing.T) {
	if err := NewMachine(nil).Run(IO{}); err == nil {
		t.Errorf("Running an empty machine succeeded")
	}
}

func randomSource(r *rand.Rand, size int) string {
	const ops = "+-<>.,"
	var sb strings.Builder
	open := 0
	for i := 0; i < size; i++ {
		switch n := r.Intn(10); {
		case n == 0:
			sb.WriteByte('[')
			open++
		case n == 1 && open > 0:
			sb.WriteByte(']')
			open--
		default:
			sb.WriteByte(ops[r.Intn(len(ops))])
		}
	}
	sb.WriteString(strings.Repeat("]", open))
	return sb.String()
}

func TestOptimizePreservesBehaviour(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	checked := 0
	for trial := 0; trial < 3000; trial++ {
		src := randomSource(r, 10+r.Intn(60))
		input := []byte{byte(r.Intn(256)), byte(r.Intn(256)), 0, byte(r.Intn(256))}
		mc := &MachineConfig{TapeLength: 4096, MaxInstructionExecutionCount: 20000, EOIByte: 3}

		raw := mustCompile(t, src)
		expected, err := Execute(raw, input, mc)
		if errors.Is(err, ErrMaxInstructionExecutionCountReached) {
			continue
		}
		if err != nil {
			t.Fatalf("Unexpected failure running [%s]. %v", src, err)
		}

		opt := mustOptimize(t, raw)
		if opt.Len() > raw.Len() {
			t.Errorf("Optimizing [%s] grew it from [%d] to [%d]", src, raw.Len(), opt.Len())
		}
		got, err := Execute(opt, input, mc)
		if err != nil {
			t.Fatalf("Optimized [%s] failed where the fused program did not. %v", src, err)
		}
		if !bytes.Equal(got, expected) {
			t.Fatalf("Optimized [%s] printed [%v], expected [%v]", src, got, expected)
		}
		checked++
	}
	if checked < 100 {
		t.Errorf("Only [%d] random programs terminated within the limit", checked)
	}
}

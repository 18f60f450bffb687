package brainfuck

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Parse reads BF source from r and returns the raw token tree.
//
// A '[' opens a nested scope and the matching ']' closes it. A ']' with no
// open loop ends parsing of the top level scope; the remainder of the stream
// is not read. Loops still open at end of stream are closed there. Nesting is
// tracked on an explicit stack so arbitrarily deep programs parse without
// recursion.
func Parse(r io.Reader) (Scope, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}

	stack := []Scope{{}}
	var pos uint
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Failed to read source byte [%d]. %w", pos, err)
		}
		pos++

		top := len(stack) - 1
		switch op := OP(b); op {
		case OP_INC, OP_DEC, OP_POINTER_LEFT, OP_POINTER_RIGHT, OP_READ, OP_WRITE:
			stack[top] = append(stack[top], Token{Op: op})
		case OP_WHILE:
			stack = append(stack, Scope{})
		case OP_WHILE_END:
			if top == 0 {
				return stack[0], nil
			}
			stack = closeLoop(stack)
		}
	}

	for len(stack) > 1 {
		stack = closeLoop(stack)
	}
	return stack[0], nil
}

func closeLoop(stack []Scope) []Scope {
	top := len(stack) - 1
	body := stack[top]
	stack = stack[:top]
	stack[top-1] = append(stack[top-1], Token{Op: OP_WHILE, Body: body})
	return stack
}

func ParseString(src string) (Scope, error) {
	return Parse(strings.NewReader(src))
}

func ParseBytes(src []byte) (Scope, error) {
	return Parse(bytes.NewReader(src))
}

// Compile parses and fuses the program read from r.
func Compile(r io.Reader) (Program, error) {
	scope, err := Parse(r)
	if err != nil {
		return Program{}, err
	}
	return Fuse(scope), nil
}

func CompileString(src string) (Program, error) {
	return Compile(strings.NewReader(src))
}

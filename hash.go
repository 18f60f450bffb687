package bfopt

import (
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/zeebo/blake3"

	bf "nickandperla.net/bfopt/brainfuck"
)

// ProgramHash identifies a program by the blake3 digest of its canonical
// encoding, so sources differing only in comments share a hash.
func ProgramHash(p bf.Program) (string, error) {
	data, err := bf.MarshalProgram(p)
	if err != nil {
		return "", fmt.Errorf("Failed to encode program for hashing. %w", err)
	}
	sum := blake3.Sum256(data)
	return base58.Encode(sum[:]), nil
}

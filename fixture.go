package bfopt

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"

	bf "nickandperla.net/bfopt/brainfuck"
)

const (
	SOURCE_EXT   = ".b"
	EXPECTED_EXT = ".out"
	INPUT_EXT    = ".in"
	SIDECAR_EXT  = ".toml"

	// Longest .in content still considered as a possible path.
	MAX_INPUT_PATH_LEN = 4096
)

// Fixture is one program of a suite directory: name.b with its expected
// output name.out, and optionally name.in and a name.toml machine override.
type Fixture struct {
	Name          string
	Dir           string
	Source        []byte
	Input         []byte
	Expected      []byte
	MachineConfig *bf.MachineConfig
}

// LoadFixtures loads every fixture in dir, ordered by name. Sources without
// an expected output file are skipped.
func LoadFixtures(dir string, base *bf.MachineConfig) ([]*Fixture, error) {
	sources, err := filepath.Glob(filepath.Join(dir, "*"+SOURCE_EXT))
	if err != nil {
		return nil, fmt.Errorf("Failed to list fixtures in [%s]. %w", dir, err)
	}
	sort.Strings(sources)

	fixtures := make([]*Fixture, 0, len(sources))
	for _, src := range sources {
		name := strings.TrimSuffix(filepath.Base(src), SOURCE_EXT)
		if _, err := os.Stat(filepath.Join(dir, name+EXPECTED_EXT)); os.IsNotExist(err) {
			log.WithField("fixture", name).Debug("Skipping source without expected output")
			continue
		}
		f, err := LoadFixture(dir, name, base)
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}

func LoadFixture(dir, name string, base *bf.MachineConfig) (*Fixture, error) {
	f := &Fixture{Name: name, Dir: dir, MachineConfig: CloneMachineConfig(base)}

	var err error
	if f.Source, err = os.ReadFile(filepath.Join(dir, name+SOURCE_EXT)); err != nil {
		return nil, fmt.Errorf("Failed to read fixture [%s] source. %w", name, err)
	}
	if f.Expected, err = os.ReadFile(filepath.Join(dir, name+EXPECTED_EXT)); err != nil {
		return nil, fmt.Errorf("Failed to read fixture [%s] expected output. %w", name, err)
	}

	input, err := os.ReadFile(filepath.Join(dir, name+INPUT_EXT))
	switch {
	case err == nil:
		f.Input = resolveInput(dir, input)
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("Failed to read fixture [%s] input. %w", name, err)
	}

	sidecar := filepath.Join(dir, name+SIDECAR_EXT)
	if _, err := os.Stat(sidecar); err == nil {
		if _, err := toml.DecodeFile(sidecar, f.MachineConfig); err != nil {
			return nil, fmt.Errorf("Failed to unmarshal fixture [%s] machine config. %w", name, err)
		}
	}

	return f, nil
}

// resolveInput treats the raw contents of a .in file as a path relative to
// dir when such a file exists, and as the input itself otherwise.
func resolveInput(dir string, raw []byte) []byte {
	if len(raw) == 0 || len(raw) > MAX_INPUT_PATH_LEN || bytes.IndexByte(raw, 0) >= 0 {
		return raw
	}
	candidate := string(raw)
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(dir, candidate)
	}
	info, err := os.Stat(candidate)
	if err != nil || !info.Mode().IsRegular() {
		return raw
	}
	data, err := os.ReadFile(candidate)
	if err != nil {
		return raw
	}
	log.WithFields(log.Fields{"path": candidate, "bytes": len(data)}).Debug("Fixture input redirected to file")
	return data
}

package bfopt

import (
	"fmt"
	"os"
	"runtime"

	"github.com/BurntSushi/toml"
	cp "github.com/jinzhu/copier"
	log "github.com/sirupsen/logrus"

	bf "nickandperla.net/bfopt/brainfuck"
)

// ToolConfig is the config.toml shared by every bf subcommand.
type ToolConfig struct {
	LogLevel    string             `toml:"log_level"`
	Machine     *bf.MachineConfig  `toml:"machine"`
	Persistence *PersistenceConfig `toml:"persistence"`
	Suite       *SuiteConfig       `toml:"suite"`
}

type SuiteConfig struct {
	Dir            string          `toml:"dir"`
	Workers        int             `toml:"workers"`
	OptimizeOnly   bool            `toml:"optimize_only"`
	SelectorConfig *SelectorConfig `toml:"select"`
}

func DefaultToolConfig() *ToolConfig {
	return &ToolConfig{
		LogLevel: "info",
		Machine:  &bf.MachineConfig{},
		Persistence: &PersistenceConfig{
			Name: DEFAULT_DB_NAME,
			Path: DEFAULT_DB_PATH,
		},
		Suite: &SuiteConfig{
			Dir:            DEFAULT_SUITE_DIR,
			Workers:        runtime.NumCPU(),
			SelectorConfig: &SelectorConfig{},
		},
	}
}

// LoadToolConfig decodes path over the defaults. A missing file is only an
// error when the caller asked for it explicitly.
func LoadToolConfig(path string, required bool) (*ToolConfig, error) {
	tc := DefaultToolConfig()

	conffile, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			log.Debugf("No tool config at [%s], using defaults", path)
			return tc, nil
		}
		return nil, fmt.Errorf("Unable to load tool config: %w", err)
	}
	defer conffile.Close()

	if _, err = toml.NewDecoder(conffile).Decode(tc); err != nil {
		return nil, fmt.Errorf("Failed to unmarshal tool config: %w", err)
	}
	tc.fillDefaults()
	return tc, nil
}

func (tc *ToolConfig) fillDefaults() {
	def := DefaultToolConfig()
	if tc.LogLevel == "" {
		tc.LogLevel = def.LogLevel
	}
	if tc.Machine == nil {
		tc.Machine = def.Machine
	}
	if tc.Suite == nil {
		tc.Suite = def.Suite
	}
	if tc.Suite.Dir == "" {
		tc.Suite.Dir = def.Suite.Dir
	}
	if tc.Suite.Workers <= 0 {
		tc.Suite.Workers = def.Suite.Workers
	}
	if tc.Suite.SelectorConfig == nil {
		tc.Suite.SelectorConfig = def.Suite.SelectorConfig
	}
	if tc.Persistence == nil {
		tc.Persistence = def.Persistence
	}
	if tc.Persistence.Name == "" {
		tc.Persistence.Name = def.Persistence.Name
	}
	if tc.Persistence.Path == "" {
		tc.Persistence.Path = def.Persistence.Path
	}
}

func (tc *ToolConfig) Level() (log.Level, error) {
	return log.ParseLevel(tc.LogLevel)
}

// CloneMachineConfig returns a deep copy so per fixture overrides never leak
// back into the shared config.
func CloneMachineConfig(mc *bf.MachineConfig) *bf.MachineConfig {
	clone := &bf.MachineConfig{}
	if mc == nil {
		return clone
	}
	cp.Copy(clone, mc)
	return clone
}

package config

import (
	"os"
	"path/filepath"
)

// Config carries the paths the tool works with. Flags override environment
// variables which override the defaults.
type Config struct {
	DataDir   string
	InputDir  string
	RulesFile string
}

// LedgerPath is the ledger blob inside the data directory.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.DataDir, "ledger.json")
}

// MappingsPath is the counterparty mapping blob inside the data directory.
func (c *Config) MappingsPath() string {
	return filepath.Join(c.DataDir, "mappings.json")
}

// ProcessEnvironmentVariables resolves the configuration from the
// environment with local-first defaults.
func ProcessEnvironmentVariables() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	env := Config{
		DataDir:  filepath.Join(home, ".nbg-analytics"),
		InputDir: ".",
	}

	envDataDir := os.Getenv("NBG_DATA_DIR")
	envInputDir := os.Getenv("NBG_INPUT_DIR")
	envRulesFile := os.Getenv("NBG_RULES_FILE")

	if len(envDataDir) != 0 {
		env.DataDir = envDataDir
	}

	if len(envInputDir) != 0 {
		env.InputDir = envInputDir
	}

	if len(envRulesFile) != 0 {
		env.RulesFile = envRulesFile
	}

	return &env, nil
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/markovbot/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config directory with an example config.yml",
	RunE:  initAction,
}

func initAction(_ *cobra.Command, _ []string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	configPath := filepath.Join(configDir, config.DefaultConfigFile)
	wrote, err := writeIfNotExists(configPath, []byte(exampleConfig))
	if err != nil {
		return err
	}

	if !wrote {
		fmt.Printf("Config directory %s already initialized.\n", configDir)
	} else {
		fmt.Printf("Initialized %s, edit %s before the first run.\n", configDir, config.DefaultConfigFile)
	}
	return nil
}

// writeIfNotExists writes data to path if the file does not exist.
// Returns true if the file was created.
func writeIfNotExists(path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("  exists: %s\n", path)
		return false, nil
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("  created: %s\n", path)
	return true, nil
}

const exampleConfig = `# markovbot configuration

instance: misskey.example.org

# token used to create the generated note
posting_token_env: MARKOVBOT_POSTING_TOKEN

# accounts whose notes train the chain
accounts:
  - id: "9abcdefghi"
    token_env: MARKOVBOT_SOURCE_TOKEN

visibility: home
cw:
  enable: false
  cw: "markov generated"
disable_post: true
multiplier: 1

markov:
  order: 1

cache:
  path: posts.json
  max_age: 168h

http:
  timeout: 30s

storage:
  path: .markovbot/history.db
  retain_days: 90

privacy:
  redact:
    enabled: false
    patterns: []

log:
  level: info
`

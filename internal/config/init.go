package config

import (
	"os"

	"github.com/provbook/bookbuilder/internal/errors"
)

const defaultConfigTemplate = `# bookbuilder configuration
site:
  title: "My Documentation Book"
  base_url: "https://docs.example.com/"
  description: ""

theme:
  name: hugo-book
  repo: https://github.com/alex-shpak/hugo-book
  ref: master

content:
  dir: content

output:
  dir: public

serve:
  port: 1313
  debounce: 300ms

history:
  path: .bookbuilder/history.db
  keep: 50

# notify:
#   enabled: true
#   url: nats://localhost:4222
#   subject: bookbuilder.builds
`

// WriteDefault writes a starter configuration file. It refuses to overwrite
// an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.New(errors.CategoryConfig, errors.SeverityFatal, "configuration file already exists").
			WithContext("path", path)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o600); err != nil {
		return errors.ConfigInvalid("cannot write configuration", err).WithContext("path", path)
	}
	return nil
}

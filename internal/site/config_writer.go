package site

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/provbook/bookbuilder/internal/config"
	"github.com/provbook/bookbuilder/internal/errors"
)

// rendererConfig is the configuration handed to the external renderer.
//
// Field order is fixed and no timestamps are embedded, so an unchanged site
// configuration always serializes byte-identically (idempotent rebuilds).
type rendererConfig struct {
	BaseURL      string         `yaml:"baseURL"`
	Title        string         `yaml:"title"`
	Theme        string         `yaml:"theme"`
	Params       rendererParams `yaml:"params"`
	DisableKinds []string       `yaml:"disableKinds,omitempty"`
}

type rendererParams struct {
	Description string `yaml:"description,omitempty"`
	BookSearch  bool   `yaml:"BookSearch"`
	BookToC     bool   `yaml:"BookToC"`
}

// writeRendererConfig emits hugo.yaml into the staging site root.
func writeRendererConfig(stageRoot string, cfg *config.Config) error {
	rc := rendererConfig{
		BaseURL: cfg.Site.BaseURL,
		Title:   cfg.Site.Title,
		Theme:   cfg.Theme.Name,
		Params: rendererParams{
			Description: cfg.Site.Description,
			BookSearch:  true,
			BookToC:     true,
		},
		DisableKinds: []string{"taxonomy", "term"},
	}

	data, err := yaml.Marshal(&rc)
	if err != nil {
		return errors.InternalError("marshal renderer config", err)
	}
	if err := os.WriteFile(filepath.Join(stageRoot, "hugo.yaml"), data, 0o600); err != nil {
		return errors.WorkspaceError("write renderer config", err)
	}
	return nil
}

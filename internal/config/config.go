// Package config reads the optional .patchdelta defaults file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/patchdelta/internal/model"
)

// Candidate filenames at the repository root, checked in order. The JSONC
// variant wins when both exist.
var candidates = []string{".patchdelta.jsonc", ".patchdelta.yaml"}

// Defaults holds the values a repository can preconfigure. The zero value
// means "no default"; callers only apply fields left unset by flags.
type Defaults struct {
	// OutputDir is the default snapshot/artifact directory. Relative paths
	// are resolved against the repository root.
	OutputDir string `json:"outputDir,omitempty" yaml:"outputDir"`

	// ScratchDir overrides the process-private scratch location.
	ScratchDir string `json:"scratchDir,omitempty" yaml:"scratchDir"`

	// TimeoutSeconds bounds each git invocation. Zero keeps the built-in
	// default.
	TimeoutSeconds int `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds"`

	// Keep retains the scratch directory after every run.
	Keep bool `json:"keep,omitempty" yaml:"keep"`
}

// Load reads the defaults file from the repository root, if one exists.
// A repository without a defaults file yields the zero Defaults and no
// error; an unreadable or unparseable file is a configuration error, since
// silently ignoring a file the user wrote would hide typos.
func Load(repoRoot string) (Defaults, error) {
	for _, name := range candidates {
		path := filepath.Join(repoRoot, name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return Defaults{}, model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("failed to read %s", path), err)
		}
		return parse(path, data)
	}
	return Defaults{}, nil
}

// parse decodes the defaults file, selecting the decoder by extension.
func parse(path string, data []byte) (Defaults, error) {
	var d Defaults
	var err error

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &d)
	default:
		// JSONC: strip comments and trailing commas, then parse as JSON.
		err = json.Unmarshal(jsonc.ToJSON(data), &d)
	}

	if err != nil {
		return Defaults{}, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to parse %s", path), err)
	}
	return d, nil
}

// Package config loads the optional tshover.hcl configuration file.
package config

import (
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
)

const DefaultFileName = "tshover.hcl"

type Config struct {
	FenceLanguage string    `hcl:"fence_language,optional"`
	Include       []string  `hcl:"include,optional"`
	Exclude       []string  `hcl:"exclude,optional"`
	TSServer      *TSServer `hcl:"tsserver,block"`
	Log           *Log      `hcl:"log,block"`
}

type TSServer struct {
	Command string   `hcl:"command,optional"`
	Args    []string `hcl:"args,optional"`
	Timeout string   `hcl:"timeout,optional"`

	timeout time.Duration
}

// TimeoutDuration is only meaningful after Validate.
func (me *TSServer) TimeoutDuration() time.Duration {
	return me.timeout
}

type Log struct {
	Level string `hcl:"level,optional"`
	Color bool   `hcl:"color,optional"`
}

func Default() *Config {
	return &Config{
		FenceLanguage: "typescript",
		Include:       []string{"**/*.ts", "**/*.tsx", "**/*.mts", "**/*.cts", "**/*.js", "**/*.jsx"},
		Exclude:       []string{"**/node_modules/**"},
		TSServer: &TSServer{
			Command: "tsserver",
			Timeout: "5s",
			timeout: 5 * time.Second,
		},
		Log: &Log{
			Level: "info",
		},
	}
}

// Load reads path from fs and layers it over Default. A missing file is not
// an error when allowMissing is set.
func Load(fs afero.Fs, path string, allowMissing bool) (*Config, error) {
	cfg := Default()

	src, err := afero.ReadFile(fs, path)
	if err != nil {
		exists, statErr := afero.Exists(fs, path)
		if allowMissing && statErr == nil && !exists {
			return cfg, nil
		}
		return nil, errors.Errorf("reading config %s: %w", path, err)
	}

	var file Config
	if err := hclsimple.Decode(syntaxName(path), src, nil, &file); err != nil {
		return nil, errors.Errorf("decoding config %s: %w", path, err)
	}

	cfg.merge(&file)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// syntaxName picks the HCL syntax from the extension, native unless .json.
func syntaxName(path string) string {
	switch filepath.Ext(path) {
	case ".hcl", ".json":
		return path
	default:
		return path + ".hcl"
	}
}

func (me *Config) merge(o *Config) {
	if o.FenceLanguage != "" {
		me.FenceLanguage = o.FenceLanguage
	}
	if o.Include != nil {
		me.Include = o.Include
	}
	if o.Exclude != nil {
		me.Exclude = o.Exclude
	}
	if o.TSServer != nil {
		if o.TSServer.Command != "" {
			me.TSServer.Command = o.TSServer.Command
		}
		if o.TSServer.Args != nil {
			me.TSServer.Args = o.TSServer.Args
		}
		if o.TSServer.Timeout != "" {
			me.TSServer.Timeout = o.TSServer.Timeout
		}
	}
	if o.Log != nil {
		if o.Log.Level != "" {
			me.Log.Level = o.Log.Level
		}
		me.Log.Color = o.Log.Color
	}
}

// Validate checks every glob and the tsserver timeout, reporting all problems
// at once.
func (me *Config) Validate() error {
	var errs error

	for _, group := range []struct {
		name     string
		patterns []string
	}{
		{"include", me.Include},
		{"exclude", me.Exclude},
	} {
		for _, p := range group.patterns {
			if !doublestar.ValidatePattern(p) {
				errs = multierr.Append(errs, errors.Errorf("invalid %s pattern %q", group.name, p))
			}
		}
	}

	if me.FenceLanguage == "" {
		errs = multierr.Append(errs, errors.New("fence_language must not be empty"))
	}

	if me.TSServer != nil && me.TSServer.Timeout != "" {
		d, err := time.ParseDuration(me.TSServer.Timeout)
		switch {
		case err != nil:
			errs = multierr.Append(errs, errors.Errorf("parsing tsserver timeout: %w", err))
		case d < 0:
			errs = multierr.Append(errs, errors.Errorf("tsserver timeout %s is negative", d))
		default:
			me.TSServer.timeout = d
		}
	}

	return errs
}

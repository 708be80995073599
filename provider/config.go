package provider

import (
	"bytes"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads a provider file on top of DefaultConfig.
// The format is picked from the extension: .toml for TOML, anything else is parsed as YAML.
// Fields absent from the file keep their default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	contents, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "error reading provider config %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(contents)).Decode(&cfg); err != nil {
			return cfg, errors.Wrapf(err, "error parsing provider config %s", path)
		}
	default:
		if err := yaml.Unmarshal(contents, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "error parsing provider config %s", path)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "invalid provider config %s", path)
	}
	return cfg, nil
}

// Validate checks the endpoint templates and credential key lists
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("provider name is missing")
	}
	for _, ep := range []struct{ field, template string }{
		{"status_url", c.StatusURL},
		{"job_url", c.JobURL},
	} {
		field, template := ep.field, ep.template
		if !strings.Contains(template, SessionPlaceholder) {
			return errors.Errorf("%s [%s] has no %s placeholder", field, template, SessionPlaceholder)
		}
		if err := checkURL(strings.ReplaceAll(template, SessionPlaceholder, "x")); err != nil {
			return errors.Wrapf(err, "%s is not a valid URL", field)
		}
	}
	if err := checkURL(c.ExecutorURL); err != nil {
		return errors.Wrap(err, "executor_url is not a valid URL")
	}
	if len(c.UsernameKeys) == 0 && c.Credentials[CredentialUsername] == "" {
		return errors.New("no username source configured")
	}
	if len(c.AccessKeyKeys) == 0 && c.Credentials[CredentialAccessKey] == "" {
		return errors.New("no access key source configured")
	}
	return nil
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return errors.Errorf("[%s] must be absolute", raw)
	}
	return nil
}

// Package provider resolves the endpoints and credentials needed to address a
// session hosted on a remote device farm.
package provider

import (
	"errors"
	"strings"

	"github.com/ethereum-optimism/infra/farmsync/types"
)

const (
	// SessionPlaceholder is substituted with the session id in endpoint templates
	SessionPlaceholder = "{session}"

	CredentialUsername  = "username"
	CredentialAccessKey = "key"
)

// ErrEmptySessionID is returned when an endpoint is requested without a session id
var ErrEmptySessionID = errors.New("session id is required")

// Config describes one device-farm provider
type Config struct {
	Name          string            `yaml:"name" toml:"name"`
	Drivers       []string          `yaml:"drivers" toml:"drivers"` // extra driver names that select this provider
	StatusURL     string            `yaml:"status_url" toml:"status_url"`
	JobURL        string            `yaml:"job_url" toml:"job_url"`
	ExecutorURL   string            `yaml:"executor_url" toml:"executor_url"`
	UsernameKeys  []string          `yaml:"username_keys" toml:"username_keys"`
	AccessKeyKeys []string          `yaml:"access_key_keys" toml:"access_key_keys"`
	Credentials   map[string]string `yaml:"credentials" toml:"credentials"` // keyed by credential name, checked before any source
}

// DefaultConfig returns the BrowserStack Automate configuration
func DefaultConfig() Config {
	return Config{
		Name:          "BrowserStack",
		StatusURL:     "https://www.browserstack.com/automate/sessions/{session}.json",
		JobURL:        "https://api.browserstack.com/automate/sessions/{session}",
		ExecutorURL:   "https://hub.browserstack.com/wd/hub",
		UsernameKeys:  []string{"BROWSERSTACK_USERNAME", "BROWSERSTACK_USR"},
		AccessKeyKeys: []string{"BROWSERSTACK_ACCESS_KEY", "BROWSERSTACK_PSW"},
	}
}

// Auth is the HTTP basic auth pair for the provider API
type Auth struct {
	Username string
	Key      string
}

// Provider is a read-only view over a Config plus the sources credentials are resolved from
type Provider struct {
	cfg      Config
	resolver *Resolver
}

// New creates a Provider. Credentials come from the given sources in order, or the environment if none are given.
func New(cfg Config, sources ...Source) *Provider {
	return &Provider{
		cfg:      cfg,
		resolver: NewResolver(sources...),
	}
}

// Name returns the display name of the provider
func (p *Provider) Name() string {
	return p.cfg.Name
}

// Config returns a copy of the provider configuration
func (p *Provider) Config() Config {
	return p.cfg
}

// UsesDriver reports whether the configured test driver targets this provider.
// Callers must check this before doing anything else for a test.
func (p *Provider) UsesDriver(driver string) bool {
	driver = strings.TrimSpace(driver)
	if driver == "" {
		return false
	}
	if strings.EqualFold(driver, p.cfg.Name) {
		return true
	}
	for _, alias := range p.cfg.Drivers {
		if strings.EqualFold(driver, alias) {
			return true
		}
	}
	return false
}

// Credential looks up a secret by name. The configured credentials map wins,
// then each key is tried in order against the sources.
func (p *Provider) Credential(name string, keys []string) (string, error) {
	if v := p.cfg.Credentials[name]; v != "" {
		return v, nil
	}
	v, err := p.resolver.Resolve(keys...)
	if err != nil {
		return "", types.NewMissingCredentialError(p.cfg.Name, name, keys)
	}
	return v, nil
}

// Username returns the API user name
func (p *Provider) Username() (string, error) {
	return p.Credential(CredentialUsername, p.cfg.UsernameKeys)
}

// AccessKey returns the API access key
func (p *Provider) AccessKey() (string, error) {
	return p.Credential(CredentialAccessKey, p.cfg.AccessKeyKeys)
}

// Auth resolves both halves of the basic auth pair
func (p *Provider) Auth() (Auth, error) {
	user, err := p.Username()
	if err != nil {
		return Auth{}, err
	}
	key, err := p.AccessKey()
	if err != nil {
		return Auth{}, err
	}
	return Auth{Username: user, Key: key}, nil
}

// StatusEndpoint returns the URL used to read and overwrite a session's status
func (p *Provider) StatusEndpoint(sessionID string) (string, error) {
	return formatEndpoint(p.cfg.StatusURL, sessionID)
}

// JobEndpoint returns the URL describing a session's job, including its replay video
func (p *Provider) JobEndpoint(sessionID string) (string, error) {
	return formatEndpoint(p.cfg.JobURL, sessionID)
}

// Executor returns the remote WebDriver entry point used to create sessions
func (p *Provider) Executor() string {
	return p.cfg.ExecutorURL
}

func formatEndpoint(template, sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrEmptySessionID
	}
	return strings.ReplaceAll(template, SessionPlaceholder, sessionID), nil
}

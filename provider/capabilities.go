package provider

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	CapabilityName      = "name"
	CapabilityUser      = "browserstack.user"
	CapabilityAccessKey = "browserstack.key"
)

// Capabilities is the insertion-ordered desired capabilities map sent when a remote session is created
type Capabilities = orderedmap.OrderedMap[string, any]

// NewCapabilities returns an empty capabilities map
func NewCapabilities() *Capabilities {
	return orderedmap.New[string, any]()
}

// SessionRequest is what a WebDriver client needs to open a session on the provider
type SessionRequest struct {
	CommandExecutor     string        `json:"command_executor"`
	DesiredCapabilities *Capabilities `json:"desired_capabilities"`
}

// BuildSessionRequest fills in the test name and provider credentials on caps, leaving any value the caller already set.
// Credentials are only resolved for keys that are missing.
func (p *Provider) BuildSessionRequest(testName string, caps *Capabilities) (*SessionRequest, error) {
	if caps == nil {
		caps = NewCapabilities()
	}
	setDefault(caps, CapabilityName, testName)

	if _, ok := caps.Get(CapabilityUser); !ok {
		user, err := p.Username()
		if err != nil {
			return nil, err
		}
		caps.Set(CapabilityUser, user)
	}
	if _, ok := caps.Get(CapabilityAccessKey); !ok {
		key, err := p.AccessKey()
		if err != nil {
			return nil, err
		}
		caps.Set(CapabilityAccessKey, key)
	}

	return &SessionRequest{
		CommandExecutor:     p.Executor(),
		DesiredCapabilities: caps,
	}, nil
}

func setDefault(caps *Capabilities, key string, value any) {
	if _, ok := caps.Get(key); !ok {
		caps.Set(key, value)
	}
}

package provider

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// ErrNoValue is returned by a Resolver when every source misses every key
var ErrNoValue = errors.New("no source provided a value")

// Source looks up a single configuration value by key.
// An empty value counts as a miss.
type Source interface {
	Lookup(key string) (string, bool)
}

// EnvSource reads the process environment
type EnvSource struct{}

func (EnvSource) Lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	return v, ok && v != ""
}

// MapSource serves values from a fixed map
type MapSource map[string]string

func (m MapSource) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok && v != ""
}

// NewDotEnvSource loads KEY=VALUE pairs from one or more dotenv files without touching the process environment
func NewDotEnvSource(paths ...string) (MapSource, error) {
	values, err := godotenv.Read(paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}
	return MapSource(values), nil
}

// Resolver tries keys in order against an ordered list of sources
type Resolver struct {
	sources []Source
}

// NewResolver creates a resolver. With no sources it reads the process environment.
func NewResolver(sources ...Source) *Resolver {
	if len(sources) == 0 {
		sources = []Source{EnvSource{}}
	}
	return &Resolver{sources: sources}
}

// Resolve returns the value of the first key any source can answer.
// Keys take precedence over sources: the second key is only consulted once the first missed everywhere.
func (r *Resolver) Resolve(keys ...string) (string, error) {
	for _, key := range keys {
		for _, src := range r.sources {
			if v, ok := src.Lookup(key); ok {
				return v, nil
			}
		}
	}
	return "", ErrNoValue
}

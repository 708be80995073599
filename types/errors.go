package types

import (
	"errors"
	"fmt"
	"strings"
)

// MissingCredentialError is returned when none of the configured sources yields a credential.
// It is the only error that escapes a report hook.
type MissingCredentialError struct {
	Provider string
	Name     string
	Keys     []string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s %s must be set. Try setting one of the following environment variables %s, or see the documentation for how to use a configuration file.",
		e.Provider, e.Name, strings.Join(e.Keys, ", "))
}

// NewMissingCredentialError creates a new MissingCredentialError
func NewMissingCredentialError(provider, name string, keys []string) *MissingCredentialError {
	return &MissingCredentialError{Provider: provider, Name: name, Keys: append([]string(nil), keys...)}
}

// IsMissingCredentialError checks if the error is or wraps a MissingCredentialError
func IsMissingCredentialError(err error) bool {
	var credErr *MissingCredentialError
	return err != nil && errors.As(err, &credErr)
}

// RemoteFetchError covers any failure reading session state from the remote:
// transport, timeout, unexpected status code, malformed or incomplete payload.
type RemoteFetchError struct {
	Endpoint string
	Err      error
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.Endpoint, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RemoteFetchError) Unwrap() error {
	return e.Err
}

// NewRemoteFetchError creates a new RemoteFetchError
func NewRemoteFetchError(endpoint string, err error) *RemoteFetchError {
	return &RemoteFetchError{Endpoint: endpoint, Err: err}
}

// IsRemoteFetchError checks if the error is or wraps a RemoteFetchError
func IsRemoteFetchError(err error) bool {
	var fetchErr *RemoteFetchError
	return err != nil && errors.As(err, &fetchErr)
}

// RemoteWriteError is a failed status update. The write was never confirmed so there is nothing to roll back.
type RemoteWriteError struct {
	Endpoint string
	Status   SessionStatus
	Err      error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("setting status %s on %s: %v", e.Status, e.Endpoint, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}

// NewRemoteWriteError creates a new RemoteWriteError
func NewRemoteWriteError(endpoint string, status SessionStatus, err error) *RemoteWriteError {
	return &RemoteWriteError{Endpoint: endpoint, Status: status, Err: err}
}

// IsRemoteWriteError checks if the error is or wraps a RemoteWriteError
func IsRemoteWriteError(err error) bool {
	var writeErr *RemoteWriteError
	return err != nil && errors.As(err, &writeErr)
}

package backend

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned by Transform when the API response carries no data.
var ErrEmptyResponse = errors.New("No data found in the response")

// ConfigError reports missing or invalid configuration.
type ConfigError struct {
	Key    string // section.key
	Reason string // empty when the key is missing
}

func (e ConfigError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("Config must contain %s but it does not", e.Key)
	}
	return fmt.Sprintf("Bad config %s: %s", e.Key, e.Reason)
}

// FetchError is a failed request to the APOD API.
type FetchError struct {
	Status string // HTTP status line when the server answered with a non-2xx status
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("Bad HTTP response: %s", e.Status)
	}
	return fmt.Sprintf("fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StepError is the error that aborted a pipeline run.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

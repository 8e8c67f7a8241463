package ai

import "fmt"

// ConfigurationError reports a provider that cannot be constructed. It is
// only ever returned at startup.
type ConfigurationError struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("ai provider %q misconfigured: %s", e.Kind, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

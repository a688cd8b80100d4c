package payload

import "fmt"

// FetchError reports a payload that could not be resolved or persisted.
// Any FetchError aborts the build.
type FetchError struct {
	Locator string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.Locator, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

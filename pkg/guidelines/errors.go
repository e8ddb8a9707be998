package guidelines

import "fmt"

// FetchError reports a non-200 response from GitHub.
type FetchError struct {
	URL    string
	Status int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("guidelines: %s returned status %d", e.URL, e.Status)
}

// ABOUTME: Typed failure classes for the messaging paths.
// ABOUTME: Lets callers distinguish check, fetch, and send failures.

package message

import "fmt"

// RecipientCheckError reports that the registration lookup itself
// failed. It is never collapsed into an unregistered verdict.
type RecipientCheckError struct {
	Recipient string
	Err       error
}

func (e *RecipientCheckError) Error() string {
	return fmt.Sprintf("checking recipient %s: %v", e.Recipient, e.Err)
}

func (e *RecipientCheckError) Unwrap() error { return e.Err }

// SendError reports a platform send failure for one recipient.
type SendError struct {
	Recipient string
	Err       error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("sending to %s: %v", e.Recipient, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// MediaFetchError reports that attachment bytes could not be retrieved
// from the caller-supplied URL. Distinct from SendError: the platform
// was never involved.
type MediaFetchError struct {
	URL string
	Err error
}

func (e *MediaFetchError) Error() string {
	return fmt.Sprintf("fetching media from %s: %v", e.URL, e.Err)
}

func (e *MediaFetchError) Unwrap() error { return e.Err }

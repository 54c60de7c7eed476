package banking

import "fmt"

// ValidationError reports malformed input caught locally, before any network
// call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthenticationError reports a rejection from the token endpoint. It is
// never retried; the caller must supply new credentials.
type AuthenticationError struct {
	Status  int
	Message string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed (%d): %s", e.Status, e.Message)
}

// RemoteError reports a non-2xx banking API response, or a transport failure
// that survived the retry budget (Status 0 in that case). Message carries the
// server's body verbatim where one was received.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("banking API unreachable: %s", e.Message)
	}
	return fmt.Sprintf("banking API returned %d: %s", e.Status, e.Message)
}

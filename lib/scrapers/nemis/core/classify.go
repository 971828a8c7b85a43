package core

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// The closed failure taxonomy shared by every operation. Lower layers
// only ever produce the structural kinds, the operations layer adds
// ErrBusiness via phrase matching.

type ErrNetwork struct {
	Transient bool
	Err       error
}

func (e ErrNetwork) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("network failure (%s): %v", kind, e.Err)
}

func (e ErrNetwork) Unwrap() error { return e.Err }

type ErrAuthentication struct {
	Reason string
}

func (e ErrAuthentication) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// the portal invalidated the session mid-use and answered with its
// login page instead of data
var ErrSessionExpired = errors.New("session expired: portal redirected to login")

type ErrProtocol struct {
	Reason string
}

func (e ErrProtocol) Error() string {
	return fmt.Sprintf("protocol failure: %s", e.Reason)
}

type ErrBusiness struct {
	// the catalog phrase that matched
	Phrase string
	// the portal's full message text
	Message string
}

func (e ErrBusiness) Error() string {
	return fmt.Sprintf("portal rejected the operation (%s): %s", e.Phrase, e.Message)
}

type ErrUnknown struct {
	Snippet string
}

func (e ErrUnknown) Error() string {
	return fmt.Sprintf("unrecognized portal response: %s", e.Snippet)
}

func asNetwork(err error, target *ErrNetwork) bool {
	return errors.As(err, target)
}

// ClassifyInput carries every signal the classifier looks at: the
// transport error (when no response arrived), the HTTP status, the
// final URL path after redirects and the raw body.
type ClassifyInput struct {
	Err        error
	StatusCode int
	FinalPath  string
	Body       string
}

type classifyRule struct {
	name  string
	match func(in ClassifyInput) bool
	err   func(in ClassifyInput) error
}

// the mapping from response signals to failure kinds is a static
// table evaluated in order, first match wins
var classifyRules = []classifyRule{
	{
		name: "transient transport failure",
		match: func(in ClassifyInput) bool {
			return in.Err != nil && isTransient(in.Err)
		},
		err: func(in ClassifyInput) error {
			return ErrNetwork{Transient: true, Err: in.Err}
		},
	},
	{
		name: "permanent transport failure",
		match: func(in ClassifyInput) bool {
			return in.Err != nil
		},
		err: func(in ClassifyInput) error {
			return ErrNetwork{Transient: false, Err: in.Err}
		},
	},
	{
		name: "redirected to login page",
		match: func(in ClassifyInput) bool {
			return strings.EqualFold(in.FinalPath, loginPath)
		},
		err: func(in ClassifyInput) error {
			return ErrSessionExpired
		},
	},
	{
		name: "ajax delta login redirect",
		match: func(in ClassifyInput) bool {
			lower := strings.ToLower(in.Body)
			return strings.Contains(lower, "pageredirect") &&
				strings.Contains(lower, "login.aspx")
		},
		err: func(in ClassifyInput) error {
			return ErrSessionExpired
		},
	},
	{
		name: "login form served in place of data",
		match: func(in ClassifyInput) bool {
			return strings.Contains(in.Body, "Login1$UserName")
		},
		err: func(in ClassifyInput) error {
			return ErrSessionExpired
		},
	},
	{
		name: "stale or corrupt view-state rejected",
		match: func(in ClassifyInput) bool {
			lower := strings.ToLower(in.Body)
			return strings.Contains(lower, "validation of viewstate mac failed") ||
				strings.Contains(lower, "invalid viewstate")
		},
		err: func(in ClassifyInput) error {
			return ErrProtocol{Reason: "portal rejected the submitted view-state"}
		},
	},
	{
		name: "server-side fault",
		match: func(in ClassifyInput) bool {
			return in.StatusCode >= 500
		},
		err: func(in ClassifyInput) error {
			return ErrNetwork{
				Transient: true,
				Err:       fmt.Errorf("portal answered HTTP %d", in.StatusCode),
			}
		},
	},
	{
		name: "access denied",
		match: func(in ClassifyInput) bool {
			return in.StatusCode == 401 || in.StatusCode == 403
		},
		err: func(in ClassifyInput) error {
			return ErrAuthentication{Reason: fmt.Sprintf("portal answered HTTP %d", in.StatusCode)}
		},
	},
	{
		name: "unexpected client error",
		match: func(in ClassifyInput) bool {
			return in.StatusCode >= 400
		},
		err: func(in ClassifyInput) error {
			return ErrUnknown{Snippet: snippet(in.Body)}
		},
	},
	{
		name: "asp.net error page",
		match: func(in ClassifyInput) bool {
			lower := strings.ToLower(in.Body)
			return strings.Contains(lower, "server error in '/' application") ||
				strings.Contains(lower, "runtime error")
		},
		err: func(in ClassifyInput) error {
			return ErrUnknown{Snippet: snippet(in.Body)}
		},
	},
}

// Classify maps response signals to the failure taxonomy. A nil return
// means the response is structurally sound, business-level phrase
// matching happens above this layer.
func Classify(in ClassifyInput) error {
	for _, rule := range classifyRules {
		if rule.match(in) {
			return rule.err(in)
		}
	}
	return nil
}

func classifyTransport(err error) error {
	return Classify(ClassifyInput{Err: err})
}

func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(err.Error(), "EOF")
}

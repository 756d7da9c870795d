package checkout

import (
	"net/url"
	"strings"
)

// Error redirect texts shown when checkout cannot reach the payment page.
const (
	UnknownErrorTitle   = "An unknown error occurred."
	UnknownErrorMessage = "Please try again later or contact a system administrator."
	InitFailedTitle     = "Payment initialization failed"
	InitFailedMessage   = "Unable to start checkout process. Please try again."
)

// ErrorRedirect builds an in-app destination that renders title and message
// on path, e.g. "/billing?error=Oops&message=Try+again".
func ErrorRedirect(path, title, message string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	q := url.Values{}
	q.Set("error", title)
	q.Set("message", message)
	return path + "?" + q.Encode()
}

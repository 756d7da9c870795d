// Package checkout drives the redirect to a hosted payment page.
//
// A checkout is a single pass through a small state machine:
//
//	idle ──no user──▶ redirect_unauthenticated
//	idle ──submit──▶ submitting ──▶ redirect_external | redirect_error
//
// From submitting the flow picks, in order: the server's errorRedirect, a
// generic error redirect when the session has no URL, or an external redirect
// to the session URL. A failed session call ends in an error redirect built
// with ErrorRedirect and the "Payment initialization failed" texts.
//
// Each price carries a pending marker from submit until the flow reaches a
// terminal state, so a page can disable only the button being processed.
package checkout

package billing

// CheckoutRequest is the body sent to create a checkout session.
type CheckoutRequest struct {
	PriceID      string `json:"price_id"`
	RedirectPath string `json:"redirect_path"`
}

// CheckoutSession is the billing API's answer to a checkout request.
// Exactly one of ErrorRedirect or SessionURL is expected; a body with
// neither is treated by callers as a missing session.
type CheckoutSession struct {
	SessionID     string `json:"sessionId,omitempty"`
	SessionURL    string `json:"sessionUrl,omitempty"`
	ErrorRedirect string `json:"errorRedirect,omitempty"`
}

// AttachRequest wraps a subscription for the store endpoint.
type AttachRequest struct {
	Subscription Subscription `json:"subscription"`
}

// PortalRequest asks for a customer portal session.
type PortalRequest struct {
	CurrentPath string `json:"current_path"`
}

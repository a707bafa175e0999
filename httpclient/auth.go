package httpclient

import "net/http"

// Auth decorates an outgoing request with credentials.
type Auth func(req *http.Request)

// BearerAuth sends token as "Authorization: Bearer <token>".
func BearerAuth(token string) Auth {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// HeaderAuth sends value in the named header, for APIs keyed by e.g. X-API-Key.
func HeaderAuth(header, value string) Auth {
	return func(req *http.Request) {
		req.Header.Set(header, value)
	}
}

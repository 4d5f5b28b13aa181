package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
)

type codeAuthorizer interface {
	AuthorizeCode(ctx context.Context, code, state string) (Grant, error)
}

// HTTPHandler completes the OAuth2 flow on the redirect URL.
type HTTPHandler struct {
	flow      codeAuthorizer
	onGranted func(Grant)
}

// NewHTTPHandler creates the callback handler. onGranted, if set, runs after a
// token was stored.
func NewHTTPHandler(flow codeAuthorizer, onGranted func(Grant)) *HTTPHandler {
	return &HTTPHandler{flow: flow, onGranted: onGranted}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		log.Println("Authorization denied:", e)
		http.Error(w, "Authorization was not granted: "+e, http.StatusForbidden)
		return
	}

	code := q.Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	g, err := h.flow.AuthorizeCode(r.Context(), code, q.Get("state"))
	switch {
	case errors.Is(err, ErrInvalidState):
		http.Error(w, "Authorization request expired, please start again", http.StatusBadRequest)
		return
	case errors.Is(err, ErrEmailMismatch):
		log.Println("h.flow.AuthorizeCode failed", err)
		http.Error(w, "The selected Google account does not match the requested email address", http.StatusBadRequest)
		return
	case err != nil:
		log.Println("h.flow.AuthorizeCode failed", err)
		http.Error(w, "Unable to authorize provided code", http.StatusBadGateway)
		return
	}

	if h.onGranted != nil {
		h.onGranted(g)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "Authorization for %s granted (%s). You can close this window.", g.Email, g.Scope.Description())
}

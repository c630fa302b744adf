package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Shivanand-hulikatti/seminar-registration/internal/model"
)

// ErrUnauthenticated is returned by an IdentityProvider that cannot tell who
// is calling.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity headers set by the authenticating proxy in front of the API.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderUserName  = "X-User-Name"
)

// IdentityProvider resolves the registrant making a request.
type IdentityProvider interface {
	Identify(r *http.Request) (model.Registrant, error)
}

// HeaderIdentity trusts the identity headers of an upstream proxy.
type HeaderIdentity struct{}

// Identify reads the registrant from the identity headers.
func (HeaderIdentity) Identify(r *http.Request) (model.Registrant, error) {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return model.Registrant{}, ErrUnauthenticated
	}
	return model.Registrant{
		ID:    id,
		Email: strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
		Name:  strings.TrimSpace(r.Header.Get(HeaderUserName)),
	}, nil
}

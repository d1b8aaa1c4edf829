package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"rentalbooking/model"
	"rentalbooking/util/httpx"
	jwtutil "rentalbooking/util/jwt"
)

var (
	ErrUnauthenticated = errors.New("credential rejected")
	ErrUnavailable     = errors.New("identity service unavailable")
	ErrNotFound        = errors.New("user not found")
)

// Verifier resolves a bearer credential to an identity.
type Verifier interface {
	Verify(ctx context.Context, credential string) (model.Identity, error)
}

// Directory resolves a subject id to display data.
type Directory interface {
	Profile(ctx context.Context, id string) (model.Profile, error)
}

// ----- remote (identity service over HTTP) -----

type Remote struct {
	verifyURL    string
	userURL      string
	serviceToken string
	client       *http.Client
}

func NewHTTP(verifyURL, userURL, serviceToken string, c *http.Client) *Remote {
	if c == nil {
		c = httpx.Client()
	}
	return &Remote{
		verifyURL:    verifyURL,
		userURL:      strings.TrimRight(userURL, "/"),
		serviceToken: serviceToken,
		client:       c,
	}
}

type verifyBody struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	Data   *struct {
		UserID string `json:"userId"`
		Role   string `json:"role"`
		Email  string `json:"email"`
	} `json:"data"`
}

func (r *Remote) Verify(ctx context.Context, credential string) (model.Identity, error) {
	tok := jwtutil.StripBearer(credential)
	if tok == "" {
		return model.Identity{}, ErrUnauthenticated
	}

	var out verifyBody
	h := http.Header{"Authorization": []string{"Bearer " + tok}}
	if err := httpx.DoJSON(ctx, r.client, http.MethodGet, r.verifyURL, h, nil, &out); err != nil {
		return model.Identity{}, classify(err, ErrUnauthenticated)
	}

	uid, role, email := out.UserID, out.Role, out.Email
	if out.Data != nil && uid == "" {
		uid, role, email = out.Data.UserID, out.Data.Role, out.Data.Email
	}
	return toIdentity(uid, role, email)
}

type userBody struct {
	Data struct {
		User struct {
			ID        string `json:"_id"`
			Email     string `json:"email"`
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
		} `json:"user"`
	} `json:"data"`
}

func (r *Remote) Profile(ctx context.Context, id string) (model.Profile, error) {
	var h http.Header
	if r.serviceToken != "" {
		h = http.Header{"Authorization": []string{"Bearer " + r.serviceToken}}
	}

	var out userBody
	u := r.userURL + "/" + url.PathEscape(id)
	if err := httpx.DoJSON(ctx, r.client, http.MethodGet, u, h, nil, &out); err != nil {
		return model.Profile{}, classify(err, ErrNotFound)
	}
	if out.Data.User.Email == "" {
		return model.Profile{}, ErrNotFound
	}
	return model.Profile{
		ID:        id,
		Email:     out.Data.User.Email,
		FirstName: out.Data.User.FirstName,
		LastName:  out.Data.User.LastName,
	}, nil
}

// classify maps 4xx to rejected and everything else to unavailable.
// 408 and 429 count as outages.
func classify(err error, rejected error) error {
	var se *httpx.StatusError
	if errors.As(err, &se) {
		switch {
		case se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden:
			return ErrUnauthenticated
		case se.Status == http.StatusRequestTimeout || se.Status == http.StatusTooManyRequests:
		case se.Status < 500:
			return rejected
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func toIdentity(uid, role, email string) (model.Identity, error) {
	rl, ok := model.ParseRole(role)
	if uid == "" || !ok {
		return model.Identity{}, ErrUnauthenticated
	}
	return model.Identity{SubjectID: uid, Role: rl, Email: email}, nil
}

// ----- local (shared HS256 secret) -----

type jwtVerifier struct{ secret string }

func NewJWT(secret string) Verifier { return &jwtVerifier{secret: secret} }

func (v *jwtVerifier) Verify(_ context.Context, credential string) (model.Identity, error) {
	claims, err := jwtutil.ParseAuth(credential, v.secret)
	if err != nil {
		return model.Identity{}, ErrUnauthenticated
	}
	return toIdentity(
		jwtutil.StringClaim(claims, "userId", "sub", "id"),
		jwtutil.StringClaim(claims, "role"),
		jwtutil.StringClaim(claims, "email"),
	)
}

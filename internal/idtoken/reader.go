package idtoken

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultLeeway is the clock skew tolerated on exp, iat and nbf.
const DefaultLeeway = 30 * time.Second

// ErrInvalidIDToken is the kind of every InvalidTokenError.
var ErrInvalidIDToken = errors.New("invalid ID token")

// InvalidTokenError reports why an ID token was rejected.
type InvalidTokenError struct {
	Reason string
	Err    error
}

func (e *InvalidTokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrInvalidIDToken, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidIDToken, e.Reason)
}

func (e *InvalidTokenError) Unwrap() error {
	return e.Err
}

func (e *InvalidTokenError) Is(target error) bool {
	return target == ErrInvalidIDToken
}

// Reader extracts the subject from ID tokens.
//
// The token signature is NOT verified. The token comes straight from the
// provider's token endpoint over TLS in the same exchange, so only the
// issuer, audience, subject and time claims are checked. This is a
// reduced-assurance mode; do not use Reader to accept ID tokens from any
// other source.
type Reader struct {
	leeway time.Duration
	now    func() time.Time
}

// Option configures a Reader.
type Option func(*Reader)

// WithLeeway overrides DefaultLeeway.
func WithLeeway(d time.Duration) Option {
	return func(r *Reader) { r.leeway = d }
}

// WithClock sets the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(r *Reader) { r.now = now }
}

func NewReader(opts ...Option) *Reader {
	r := &Reader{leeway: DefaultLeeway, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ExtractSubject decodes idToken, checks that it was issued by
// expectedIssuer for expectedAudience and is within its validity window,
// and returns the sub claim along with all claims.
func (r *Reader) ExtractSubject(idToken, expectedIssuer, expectedAudience string) (string, jwt.MapClaims, error) {
	if idToken == "" {
		return "", nil, &InvalidTokenError{Reason: "no ID token is available"}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return "", nil, &InvalidTokenError{Reason: "failed to parse ID token", Err: err}
	}

	validator := jwt.NewValidator(
		jwt.WithIssuer(expectedIssuer),
		jwt.WithAudience(expectedAudience),
		jwt.WithLeeway(r.leeway),
		jwt.WithTimeFunc(r.now),
		jwt.WithExpirationRequired(),
	)
	if err := validator.Validate(claims); err != nil {
		slog.Debug("ID token claims rejected",
			"subsystem", "IDToken",
			"issuer", expectedIssuer,
			"error", err)
		return "", nil, &InvalidTokenError{Reason: "ID token claims are not valid", Err: err}
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return "", nil, &InvalidTokenError{Reason: "sub claim is malformed", Err: err}
	}
	if subject == "" {
		return "", nil, &InvalidTokenError{Reason: "sub claim is missing"}
	}

	return subject, claims, nil
}

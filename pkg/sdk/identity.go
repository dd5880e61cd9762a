package sdk

import (
	"slices"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// Identity is a point-in-time snapshot of the current actor, derived
// from the bearer token's payload. A zero Identity means "not signed in".
type Identity struct {
	Authenticated bool
	Subject       string
	Email         string
	Username      string
	ClinicID      string
	Roles         []string
	IDToken       string
	ExpiresAt     time.Time
}

// HasRole reports whether the identity carries the given role claim.
func (id Identity) HasRole(role string) bool {
	return slices.Contains(id.Roles, role)
}

// Provider supplies the current identity and change notifications.
// Both the access gate and the per-request credential fetch depend on
// this single abstraction.
type Provider interface {
	// Current returns the identity snapshot. An unauthenticated session
	// is a valid snapshot, not an error; errors mean the identity could
	// not be determined at all.
	Current() (Identity, error)
	// Subscribe registers a callback invoked on every identity change
	// (sign-in, token refresh, sign-out). The returned function cancels
	// the subscription.
	Subscribe(fn func(Identity)) (cancel func())
}

// Broker is the concrete Provider backed by stored credentials. It
// parses role and clinic claims out of the ID token payload and fans
// out change notifications to subscribers.
type Broker struct {
	mu      sync.Mutex
	creds   *Credentials
	subs    map[int]func(Identity)
	nextSub int
}

var _ Provider = (*Broker)(nil)

// NewBroker creates a Broker seeded with creds, which may be nil for a
// signed-out session.
func NewBroker(creds *Credentials) *Broker {
	return &Broker{creds: creds, subs: make(map[int]func(Identity))}
}

// Current implements Provider.
func (b *Broker) Current() (Identity, error) {
	b.mu.Lock()
	creds := b.creds
	b.mu.Unlock()
	return identityFromCredentials(creds)
}

// SetCredentials installs new credentials (sign-in or token refresh)
// and notifies subscribers.
func (b *Broker) SetCredentials(creds *Credentials) {
	b.mu.Lock()
	b.creds = creds
	b.mu.Unlock()
	b.notify()
}

// Clear drops the stored credentials (sign-out) and notifies subscribers.
func (b *Broker) Clear() {
	b.SetCredentials(nil)
}

// Subscribe implements Provider.
func (b *Broker) Subscribe(fn func(Identity)) func() {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// IDToken returns the bearer credential for an authenticated request,
// or an identity error when the session is signed out or expired.
func (b *Broker) IDToken() (string, error) {
	b.mu.Lock()
	creds := b.creds
	b.mu.Unlock()
	if creds == nil || creds.IDToken == "" {
		return "", identityError("not signed in")
	}
	if creds.IsExpired() {
		return "", identityError("access token expired; please sign in again")
	}
	return creds.IDToken, nil
}

func (b *Broker) notify() {
	b.mu.Lock()
	fns := make([]func(Identity), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	creds := b.creds
	b.mu.Unlock()

	snapshot, err := identityFromCredentials(creds)
	if err != nil {
		snapshot = Identity{}
	}
	for _, fn := range fns {
		fn(snapshot)
	}
}

// tokenClaims carries the portal-specific claims alongside the
// registered ones. Roles come from whichever of roles/groups/
// cognito:groups is populated.
type tokenClaims struct {
	Email         string   `json:"email"`
	Username      string   `json:"cognito:username"`
	Roles         []string `json:"roles"`
	Groups        []string `json:"groups"`
	CognitoGroups []string `json:"cognito:groups"`
	ClinicID      string   `json:"custom:clinicId"`
}

var tokenSignatureAlgs = []jose.SignatureAlgorithm{
	jose.RS256, jose.RS384, jose.RS512, jose.ES256, jose.ES384, jose.ES512,
}

func identityFromCredentials(creds *Credentials) (Identity, error) {
	if creds == nil || creds.IDToken == "" {
		return Identity{}, nil
	}
	if creds.IsExpired() {
		return Identity{}, nil
	}

	tok, err := jwt.ParseSigned(creds.IDToken, tokenSignatureAlgs)
	if err != nil {
		return Identity{}, identityError("invalid identity token: %v", err)
	}

	// Signature verification is the server's job on every request; the
	// client only reads the payload, as the browser portal did.
	var std jwt.Claims
	var custom tokenClaims
	if err := tok.UnsafeClaimsWithoutVerification(&std, &custom); err != nil {
		return Identity{}, identityError("unreadable identity token claims: %v", err)
	}

	roles := custom.Roles
	if len(roles) == 0 {
		roles = custom.Groups
	}
	if len(roles) == 0 {
		roles = custom.CognitoGroups
	}

	clinicID := custom.ClinicID
	if clinicID == "" && len(roles) > 0 {
		clinicID = roles[0]
	}

	expiresAt := creds.ExpiresAt
	if std.Expiry != nil {
		expiresAt = std.Expiry.Time()
	}

	return Identity{
		Authenticated: true,
		Subject:       std.Subject,
		Email:         custom.Email,
		Username:      custom.Username,
		ClinicID:      clinicID,
		Roles:         slices.Clone(roles),
		IDToken:       creds.IDToken,
		ExpiresAt:     expiresAt,
	}, nil
}

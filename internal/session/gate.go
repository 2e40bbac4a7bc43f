// Package session resolves the authenticated identity and its role profile,
// gating the driver-facing surfaces. Any authorization failure forces a
// sign-out so a half-authenticated state can never reach the UI.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/lord-william/lalalika-logistics/internal/backend"
	dErrors "github.com/lord-william/lalalika-logistics/pkg/domain-errors"
	"github.com/lord-william/lalalika-logistics/pkg/platform/sentinel"
)

// RoleDriver is the profile role required by the driver dashboard.
const RoleDriver = "driver"

// StatusApproved is the only profile status allowed to log in when the
// profile carries a status at all.
const StatusApproved = "approved"

// Profile is the role record stored at users/<uid>.
type Profile struct {
	FirstName string
	LastName  string
	Name      string
	Email     string
	Phone     string
	Role      string
	Status    string
	Raw       backend.Record
}

// DisplayName prefers the split first/last fields and falls back to the
// legacy single name field.
func (p Profile) DisplayName() string {
	full := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
	if full != "" {
		return full
	}
	return p.Name
}

func profileFromRecord(rec backend.Record) Profile {
	get := func(key string) string {
		v, _ := rec[key].(string)
		return v
	}
	return Profile{
		FirstName: get("firstName"),
		LastName:  get("lastName"),
		Name:      get("name"),
		Email:     get("email"),
		Phone:     get("phone"),
		Role:      get("role"),
		Status:    get("status"),
		Raw:       rec,
	}
}

// State is delivered to Watch callbacks on every identity change.
type State struct {
	IsAuthenticated bool
	Identity        backend.Identity
	Profile         Profile
	Error           string
}

// Gate authorizes identities against a required profile role.
type Gate struct {
	client       *backend.Client
	requiredRole string
	logger       *slog.Logger
}

func NewGate(client *backend.Client, requiredRole string, logger *slog.Logger) *Gate {
	return &Gate{client: client, requiredRole: requiredRole, logger: logger}
}

// Watch attaches to the identity-change stream and delivers a resolved State
// per change. The caller owns the returned detach handle; detaching stops
// future delivery but does not interrupt an in-flight profile fetch.
func (g *Gate) Watch(cb func(State)) backend.Detach {
	return g.client.Auth.OnIdentityChange(func(ident *backend.Identity) {
		if ident == nil {
			cb(State{IsAuthenticated: false})
			return
		}
		ctx := context.Background()
		rec, err := g.client.DB.Get(ctx, "users/"+ident.UID)
		if errors.Is(err, sentinel.ErrNotFound) {
			g.signOut(ctx)
			cb(State{IsAuthenticated: false, Error: "Account not found"})
			return
		}
		if err != nil {
			g.logger.ErrorContext(ctx, "auth state error", "uid", ident.UID, "error", err)
			cb(State{IsAuthenticated: false, Error: dErrors.Message(err)})
			return
		}
		profile := profileFromRecord(rec)
		if profile.Role != g.requiredRole {
			g.signOut(ctx)
			cb(State{IsAuthenticated: false, Error: "Unauthorized access"})
			return
		}
		cb(State{IsAuthenticated: true, Identity: *ident, Profile: profile})
	})
}

// LoginDriver signs in with credentials and verifies the driver profile:
// the account must exist, carry the driver role, and be approved. Every
// rejection signs the identity back out before returning.
func (g *Gate) LoginDriver(ctx context.Context, email, password string) (backend.Identity, Profile, error) {
	ident, err := g.client.Auth.SignIn(ctx, email, password)
	if err != nil {
		return backend.Identity{}, Profile{}, dErrors.New(dErrors.CodeUnauthorized, "Invalid email or password.")
	}

	rec, err := g.client.DB.Get(ctx, "users/"+ident.UID)
	if errors.Is(err, sentinel.ErrNotFound) {
		g.signOut(ctx)
		return backend.Identity{}, Profile{}, dErrors.New(dErrors.CodeUnauthorized,
			"No account found for this email. Please register as a driver.")
	}
	if err != nil {
		g.signOut(ctx)
		return backend.Identity{}, Profile{}, dErrors.Wrap(err, dErrors.CodeUnavailable,
			"Unable to verify your account. Please try again.")
	}

	profile := profileFromRecord(rec)
	if profile.Role != RoleDriver {
		g.signOut(ctx)
		return backend.Identity{}, Profile{}, dErrors.New(dErrors.CodeForbidden,
			"Access denied. This account is not registered as a driver.")
	}
	if profile.Status != "" && profile.Status != StatusApproved {
		g.signOut(ctx)
		return backend.Identity{}, Profile{}, dErrors.New(dErrors.CodeForbidden,
			"Your driver account is not yet approved. Please wait for admin approval.")
	}

	return ident, profile, nil
}

// Logout signs the current identity out.
func (g *Gate) Logout(ctx context.Context) error {
	return g.client.Auth.SignOut(ctx)
}

// IsAdmin probes the admins collection for the uid. Failures report false;
// the admin shortcut simply stays hidden.
func (g *Gate) IsAdmin(ctx context.Context, uid string) bool {
	_, err := g.client.DB.Get(ctx, "admins/"+uid)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false
	}
	if err != nil {
		g.logger.ErrorContext(ctx, "failed to check admin privileges", "uid", uid, "error", err)
		return false
	}
	return true
}

func (g *Gate) signOut(ctx context.Context) {
	if err := g.client.Auth.SignOut(ctx); err != nil {
		g.logger.ErrorContext(ctx, "sign out failed", "error", err)
	}
}

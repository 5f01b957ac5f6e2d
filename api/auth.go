package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/warp/forklift-rental/logger"
	"github.com/warp/forklift-rental/rental"
)

// Claims is the bearer token payload. The user is re-read from the store on
// every request, so role and company here are informational.
type Claims struct {
	UserID          string `json:"user_id"`
	Role            string `json:"role"`
	RentalCompanyID string `json:"rental_company_id,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret, issuer string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs a token for u.
func (t *Tokens) Issue(u *rental.User) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)
	claims := Claims{
		UserID:          u.ID,
		Role:            string(u.Role),
		RentalCompanyID: u.RentalCompanyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify checks signature, issuer and expiry.
func (t *Tokens) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no user_id")
	}
	return claims, nil
}

// =============================================================================
// ACTOR CONTEXT
// =============================================================================

type actorKey struct{}

func withActor(ctx context.Context, u *rental.User) context.Context {
	return context.WithValue(ctx, actorKey{}, u)
}

// ActorFrom returns the authenticated user, or nil outside Authenticate.
func ActorFrom(ctx context.Context) *rental.User {
	u, _ := ctx.Value(actorKey{}).(*rental.User)
	return u
}

// Authenticate resolves the bearer token to a stored user. Unknown users
// and bad tokens are both 401.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token", nil)
			return
		}
		claims, err := h.tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token", err)
			return
		}
		actor, err := h.svc.Actor(r.Context(), claims.UserID)
		if err != nil {
			if rental.IsNotFound(err) {
				writeError(w, http.StatusUnauthorized, "unknown user", nil)
				return
			}
			h.fail(w, r, err)
			return
		}
		log := logger.FromContext(r.Context()).With(
			zap.String("user_id", actor.ID),
			zap.String("role", string(actor.Role)))
		ctx := logger.WithContext(withActor(r.Context(), actor), log)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IssueToken is the development login: it trades a known email for a token
// without a password.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	if !h.allowDevLogin {
		writeError(w, http.StatusNotFound, "not found", nil)
		return
	}
	var req TokenRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.svc.ActorByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if rental.IsNotFound(err) {
			writeError(w, http.StatusUnauthorized, "unknown user", nil)
			return
		}
		h.fail(w, r, err)
		return
	}
	token, expires, err := h.tokens.Issue(user)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("token issued", zap.String("user_id", user.ID))
	writeJSON(w, http.StatusOK, TokenResponse{Token: token, ExpiresAt: expires.UTC(), User: *user})
}

var allCapabilities = []rental.Capability{
	rental.CapDashboard,
	rental.CapForkliftsRead,
	rental.CapForkliftsWrite,
	rental.CapCompanies,
	rental.CapAccounts,
	rental.CapContracts,
	rental.CapLessees,
	rental.CapSettlements,
	rental.CapCalendar,
	rental.CapOverdue,
}

// Me returns the caller and the capabilities its role holds.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r.Context())
	caps := []rental.Capability{}
	for _, c := range allCapabilities {
		if rental.Can(actor, c) {
			caps = append(caps, c)
		}
	}
	writeJSON(w, http.StatusOK, MeResponse{User: *actor, Capabilities: caps})
}

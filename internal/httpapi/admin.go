package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"medvault/internal/audit"
	dErrors "medvault/pkg/domain-errors"
	"medvault/pkg/platform/httputil"
)

// AdminGuard protects the compliance endpoints. Tokens are HMAC-signed and
// must carry role=admin; every rejection lands in the audit ledger.
type AdminGuard struct {
	key    []byte
	ledger *audit.Ledger
}

func NewAdminGuard(key string, ledger *audit.Ledger) *AdminGuard {
	return &AdminGuard{key: []byte(key), ledger: ledger}
}

func (g *AdminGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, err := g.parse(r)
		if err != nil {
			g.ledger.RecordUnauthorizedAccess(ctx, r.URL.Path)
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin access required"))
			return
		}

		if role, _ := claims["role"].(string); role != "admin" {
			g.ledger.RecordUnauthorizedAccess(ctx, r.URL.Path)
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin access required"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (g *AdminGuard) parse(r *http.Request) (jwt.MapClaims, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, fmt.Errorf("missing bearer token")
	}
	raw := strings.TrimPrefix(header, "Bearer ")

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return g.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse admin token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid admin token")
	}
	return claims, nil
}

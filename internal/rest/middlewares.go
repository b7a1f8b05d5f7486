package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v4"

	"github.com/pershin-daniil/LabLoans/pkg/metrics"
	"github.com/pershin-daniil/LabLoans/pkg/models"
)

type ctxClaimsType string

const (
	ctxClaimsStr ctxClaimsType = "claims"
	tokenIssuer                = "labloans"
)

var (
	ErrUnauthorised = fmt.Errorf("%w: missing or invalid bearer token", models.ErrUnauthenticated)
	ErrRoleDenied   = fmt.Errorf("%w: role not allowed", models.ErrForbidden)
)

func (s *Server) jwtAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 || headerParts[0] != "Bearer" {
			s.writeError(w, ErrUnauthorised)
			return
		}
		claims, err := parseToken(headerParts[1], s.cfg.JWTSecret)
		if err != nil {
			s.log.Debugf("rejected token: %v", err)
			s.writeError(w, ErrUnauthorised)
			return
		}
		r = r.WithContext(context.WithValue(r.Context(), ctxClaimsStr, claims))
		next.ServeHTTP(w, r)
	})
}

// requireRoles rejects callers whose token role is not listed.
func (s *Server) requireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := s.getClaims(r.Context())
			if claims == nil {
				s.writeError(w, ErrUnauthorised)
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			s.writeError(w, ErrRoleDenied)
		})
	}
}

// observe records request metrics and an access log line.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(started)
		metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())
		s.log.Debugf("%s %s %d %s", r.Method, r.URL.Path, status, elapsed)
	})
}

func (s *Server) getClaims(ctx context.Context) *models.Claims {
	claims, ok := ctx.Value(ctxClaimsStr).(*models.Claims)
	if !ok {
		return nil
	}
	return claims
}

func (s *Server) caller(r *http.Request) models.Caller {
	claims := s.getClaims(r.Context())
	if claims == nil {
		return models.Caller{}
	}
	return claims.Caller()
}

func parseToken(accessToken string, key []byte) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(accessToken, &models.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signing method: %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("err parsing token: %w", err)
	}
	claims, ok := token.Claims.(*models.Claims)
	if !ok {
		return nil, fmt.Errorf("invalid claims")
	}
	if !claims.VerifyIssuer(tokenIssuer, true) {
		return nil, fmt.Errorf("unexpected issuer %q", claims.Issuer)
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return nil, fmt.Errorf("incomplete claims")
	}
	return claims, nil
}

// Package api implements the HTTP surface of the fzclean service.
package api

import (
    "net/http"
    "strings"

    "fzclean/internal/auth"
    "fzclean/internal/branch"
)

// getPrincipal resolves the caller from a bearer token. In dev mode,
// requests without a token fall back to X-Franchise-Id/X-Role headers
// so local tools work unauthenticated; hmac mode has no fallback.
func (s *Server) getPrincipal(r *http.Request) (auth.Principal, bool) {
    authz := r.Header.Get("Authorization")
    if strings.HasPrefix(strings.ToLower(authz), "bearer ") && s.Auth != nil {
        tok := strings.TrimSpace(authz[len("Bearer "):])
        if p, err := s.Auth.Verify(tok); err == nil {
            return p, true
        }
        return auth.Principal{}, false
    }
    if s.Auth == nil || s.Auth.Mode != "dev" {
        return auth.Principal{}, false
    }
    franchise := r.Header.Get("X-Franchise-Id")
    if franchise == "" { franchise = branch.Default().ID }
    role := strings.ToLower(r.Header.Get("X-Role"))
    if role == "" { role = "admin" }
    return auth.Principal{Franchise: franchise, Role: role, DriverID: r.Header.Get("X-Driver-Id")}, true
}

// requirePrincipal writes 401 when the caller is not authenticated.
func (s *Server) requirePrincipal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
    p, ok := s.getPrincipal(r)
    if !ok {
        writeError(w, http.StatusUnauthorized, "unauthorized", "valid bearer token required")
        return auth.Principal{}, false
    }
    return p, true
}

// requireRole writes 401/403 unless the caller holds one of the roles.
// Admins pass every check.
func (s *Server) requireRole(w http.ResponseWriter, r *http.Request, roles ...string) (auth.Principal, bool) {
    p, ok := s.requirePrincipal(w, r)
    if !ok { return auth.Principal{}, false }
    if p.Role == "admin" { return p, true }
    for _, role := range roles {
        if p.Role == role { return p, true }
    }
    msg := strings.Join(roles, " or ") + " role required"
    if len(roles) == 0 { msg = "admin role required" }
    writeError(w, http.StatusForbidden, "forbidden", msg)
    return auth.Principal{}, false
}

// franchiseFor picks the franchise a list/query acts on: admins may
// address any franchise via ?franchiseId, everyone else gets their own.
func franchiseFor(p auth.Principal, r *http.Request) string {
    if q := r.URL.Query().Get("franchiseId"); q != "" && p.Role == "admin" {
        return branch.ByID(q).ID
    }
    return branch.ByID(p.Franchise).ID
}

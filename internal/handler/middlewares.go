package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rskariadi-dev/manrura/internal/domain"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)
		slog.Info("request handled", "status", rw.StatusCode, "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "duration", duration)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
				stackTrace := string(debug.Stack())
				fmt.Print(stackTrace) // multi-line, unreadable through slog
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// tokenFromRequest prefers the Authorization header and falls back to the login cookie.
func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(TokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

var (
	errNotSignedIn  = errors.New("not signed in")
	errInvalidToken = errors.New("invalid token")
	errAccountGone  = errors.New("account no longer exists")
)

// authenticate resolves the token to the current user record.
func (h *Handler) authenticate(r *http.Request) (context.Context, error) {
	tokenString := tokenFromRequest(r)
	if tokenString == "" {
		return nil, errNotSignedIn
	}

	claims := &AuthClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(h.config.JWT.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(h.clock))
	if err != nil {
		return nil, errInvalidToken
	}

	// the role in the token may be stale, the stored user is authoritative
	user, err := h.repository.GetUserByID(claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errAccountGone
		}
		return nil, err
	}

	ctx := r.Context()
	ctx = context.WithValue(ctx, RoleCtxKey, string(user.Role))
	ctx = context.WithValue(ctx, SubCtxKey, claims.Subject)
	ctx = context.WithValue(ctx, MyInfoCtx, user)
	return ctx, nil
}

func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := h.authenticate(r)
		if err != nil {
			h.authFailure(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) authFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errNotSignedIn), errors.Is(err, errInvalidToken), errors.Is(err, errAccountGone):
		h.unauthorized(w, r, err.Error())
	default:
		h.internalServerError(w, r, err)
	}
}

func myInfo(r *http.Request) *domain.User {
	user, _ := r.Context().Value(MyInfoCtx).(*domain.User)
	return user
}

package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/services"
)

// UserLookup loads the stored account of the caller.
type UserLookup interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

func lookupCaller(users UserLookup, w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	userID := GetUserIDFromContext(r)
	if userID == "" {
		http.Error(w, "Unauthorized: No user ID found", http.StatusUnauthorized)
		return nil, false
	}

	user, err := users.Get(r.Context(), userID)
	if errors.Is(err, models.ErrNotFound) {
		http.Error(w, "Forbidden: Account not registered", http.StatusForbidden)
		return nil, false
	}
	if err != nil {
		log.Printf("Error loading user %s: %v", userID, err)
		http.Error(w, "Failed to get user", http.StatusInternalServerError)
		return nil, false
	}
	return user, true
}

// RequireApproved lets through only users an admin has approved.
func RequireApproved(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := lookupCaller(users, w, r)
			if !ok {
				return
			}
			if !user.IsApproved() {
				http.Error(w, "Forbidden: Account is "+user.Status, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole is a middleware that ensures the user has at least the specified role
func RequireRole(users UserLookup, requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := lookupCaller(users, w, r)
			if !ok {
				return
			}
			if !services.IsRoleAtLeast(user.Role, requiredRole) {
				http.Error(w, "Forbidden: Insufficient role privileges", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is a middleware that ensures the user is an admin
func RequireAdmin(users UserLookup) func(http.Handler) http.Handler {
	return RequireRole(users, models.RoleAdmin)
}

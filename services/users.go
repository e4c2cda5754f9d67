package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/database"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
)

// RoleHierarchy defines the hierarchy of roles in the system
// Higher numbers have more permissions
var RoleHierarchy = map[string]int{
	models.RoleUser:       1,
	models.RoleAdmin:      2,
	models.RoleSuperAdmin: 3,
}

// IsRoleAtLeast checks if a role is at least at the specified level
func IsRoleAtLeast(userRole, requiredRole string) bool {
	userLevel, userExists := RoleHierarchy[userRole]
	requiredLevel, requiredExists := RoleHierarchy[requiredRole]

	// Unknown roles only match themselves
	if !userExists || !requiredExists {
		return userRole == requiredRole
	}

	return userLevel >= requiredLevel
}

type UserService struct {
	db          *database.DB
	adminEmails map[string]bool
}

// NewUserService builds the service. Users signing in with one of adminEmails are
// approved admins from their first sync.
func NewUserService(db *database.DB, adminEmails []string) *UserService {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins[e] = true
		}
	}
	return &UserService{db: db, adminEmails: admins}
}

const userColumns = `id, email, name, phone, status, role, created_at`

func scanUser(s rowScanner) (models.User, error) {
	var u models.User
	err := s.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.Status, &u.Role, &u.CreatedAt)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	return u, err
}

func (s *UserService) isDefaultAdmin(email string) bool {
	return s.adminEmails[strings.ToLower(strings.TrimSpace(email))]
}

// Sync records the authenticated user, creating them on first sign-in.
func (s *UserService) Sync(ctx context.Context, id, email, name string) (*models.User, error) {
	if id == "" {
		return nil, &models.ValidationError{Field: "id", Message: "user id is required"}
	}
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)

	var user models.User
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		existing, err := scanUser(tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
		switch {
		case errors.Is(err, sql.ErrNoRows):
			user = models.User{
				ID:        id,
				Email:     email,
				Name:      name,
				Status:    models.StatusPending,
				Role:      models.RoleUser,
				CreatedAt: database.Now(),
			}
			if s.isDefaultAdmin(email) {
				user.Status = models.StatusApproved
				user.Role = models.RoleAdmin
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
			`, user.ID, user.Email, user.Name, user.Phone, user.Status, user.Role, user.CreatedAt); err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			log.Printf("Registered user %s (%s) as %s/%s", user.ID, user.Email, user.Role, user.Status)
			return nil
		case err != nil:
			return fmt.Errorf("failed to load user: %w", err)
		}

		user = existing
		if email != "" {
			user.Email = email
		}
		if name != "" && user.Name == "" {
			user.Name = name
		}
		if s.isDefaultAdmin(user.Email) {
			user.Status = models.StatusApproved
			if !IsRoleAtLeast(user.Role, models.RoleAdmin) {
				user.Role = models.RoleAdmin
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET email = ?, name = ?, status = ?, role = ? WHERE id = ?`,
			user.Email, user.Name, user.Status, user.Role, user.ID); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func getUser(ctx context.Context, q querier, id string) (*models.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return getUser(ctx, s.db, id)
}

// GetRole returns the user's role, defaulting to user when none is stored.
func (s *UserService) GetRole(ctx context.Context, id string) (string, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, email`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			log.Printf("Warning: skipping unreadable user: %v", err)
			continue
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	return users, nil
}

// SetStatus approves or rejects an account. Admins cannot change their own status.
func (s *UserService) SetStatus(ctx context.Context, actorID, targetID, status string) (*models.User, error) {
	if !models.ValidStatus(status) {
		return nil, &models.ValidationError{Field: "status", Message: "invalid status: " + status}
	}
	actorRole, err := s.GetRole(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get actor role: %w", err)
	}
	if !IsRoleAtLeast(actorRole, models.RoleAdmin) {
		return nil, models.ErrForbidden
	}
	if actorID == targetID {
		return nil, &models.ValidationError{Field: "status", Message: "cannot change your own status"}
	}

	res, err := s.db.ExecContext(ctx, `UPDATE users SET status = ? WHERE id = ?`, status, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, models.ErrNotFound
	}
	return s.Get(ctx, targetID)
}

// SetRole sets the role of a user
// Only superadmins can set other users to superadmin
// Only admins or higher can set other users' roles
func (s *UserService) SetRole(ctx context.Context, actorID, targetID, newRole string) (*models.User, error) {
	if _, exists := RoleHierarchy[newRole]; !exists {
		return nil, &models.ValidationError{Field: "role", Message: "invalid role: " + newRole}
	}

	actorRole, err := s.GetRole(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get actor role: %w", err)
	}
	targetRole, err := s.GetRole(ctx, targetID)
	if err != nil {
		return nil, err
	}

	// Rules for role changes:
	// 1. Users can't change roles
	// 2. Only superadmins can create other superadmins
	// 3. Can't demote yourself
	// 4. Admins can't change roles of other admins or superadmins
	if actorRole == models.RoleUser && (actorID != targetID || newRole != models.RoleUser) {
		return nil, models.ErrForbidden
	}
	if newRole == models.RoleSuperAdmin && actorRole != models.RoleSuperAdmin {
		return nil, fmt.Errorf("only superadmins can create other superadmins: %w", models.ErrForbidden)
	}
	if actorID == targetID && RoleHierarchy[newRole] < RoleHierarchy[actorRole] {
		return nil, fmt.Errorf("cannot demote yourself: %w", models.ErrForbidden)
	}
	if actorRole == models.RoleAdmin && actorID != targetID && IsRoleAtLeast(targetRole, models.RoleAdmin) {
		return nil, fmt.Errorf("admins cannot change roles of other admins or superadmins: %w", models.ErrForbidden)
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, newRole, targetID); err != nil {
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}
	return s.Get(ctx, targetID)
}

// UpdateProfile changes the user's display name and WhatsApp number.
func (s *UserService) UpdateProfile(ctx context.Context, id, name, phone string) (*models.User, error) {
	phone = strings.TrimSpace(phone)
	for _, r := range strings.TrimPrefix(phone, "+") {
		if (r < '0' || r > '9') && r != ' ' && r != '-' {
			return nil, &models.ValidationError{Field: "phone", Message: "phone may only contain digits"}
		}
	}

	res, err := s.db.ExecContext(ctx, `UPDATE users SET name = ?, phone = ? WHERE id = ?`,
		strings.TrimSpace(name), phone, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, models.ErrNotFound
	}
	return s.Get(ctx, id)
}

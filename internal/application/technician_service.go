package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/exterminus/internal/persistence"
)

// TechnicianRoster lists technicians.
type TechnicianRoster interface {
	ListTechnicians(ctx context.Context) ([]persistence.Technician, error)
}

// RoleRepository changes account roles.
type RoleRepository interface {
	GetUser(ctx context.Context, id int64) (persistence.User, error)
	UpdateUserRole(ctx context.Context, id int64, role, rosterName string) error
}

// TechnicianService exposes the roster and role administration.
type TechnicianService struct {
	roster TechnicianRoster
	users  RoleRepository
	logger *slog.Logger
}

// NewTechnicianService wires dependencies for roster operations.
func NewTechnicianService(roster TechnicianRoster, users RoleRepository, logger *slog.Logger) *TechnicianService {
	return &TechnicianService{roster: roster, users: users, logger: defaultLogger(logger)}
}

// ListTechnicians returns the roster ordered by name.
func (s *TechnicianService) ListTechnicians(ctx context.Context) ([]persistence.Technician, error) {
	if s == nil || s.roster == nil {
		return nil, fmt.Errorf("TechnicianService is not configured")
	}
	technicians, err := s.roster.ListTechnicians(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if technicians == nil {
		technicians = []persistence.Technician{}
	}
	return technicians, nil
}

// PromoteUser sets the role of a user. Only admins may do this. Promoting to
// technician also adds the user's roster name to the technician roster.
func (s *TechnicianService) PromoteUser(ctx context.Context, principal Principal, userID int64, role string) (User, error) {
	if s == nil || s.users == nil {
		return User{}, fmt.Errorf("TechnicianService is not configured")
	}
	logger := serviceLogger(ctx, s.logger, "TechnicianService", "PromoteUser", "user_id", principal.UserID, "target_user_id", userID)

	if !principal.HasRole(RoleAdmin) {
		logFailure(ctx, logger, "promotion denied", ErrUnauthorized)
		return User{}, ErrUnauthorized
	}

	role = NormalizeRole(role)
	if !ValidRole(role) {
		vErr := &ValidationError{}
		vErr.add("role", "Role is invalid.")
		logFailure(ctx, logger, "promotion rejected", vErr)
		return User{}, vErr
	}

	account, err := s.users.GetUser(ctx, userID)
	if err != nil {
		err = mapRepoError(err)
		logFailure(ctx, logger, "promotion failed", err)
		return User{}, err
	}
	user := newUser(account)

	var rosterName string
	if role == RoleTechnician {
		rosterName = user.RosterName()
	}
	if err := s.users.UpdateUserRole(ctx, userID, role, rosterName); err != nil {
		err = mapRepoError(err)
		logFailure(ctx, logger, "promotion failed", err)
		return User{}, err
	}

	logger.InfoContext(ctx, "user role changed", "role", role)
	user.Role = role
	return user, nil
}

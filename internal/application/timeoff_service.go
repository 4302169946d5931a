package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/example/exterminus/internal/persistence"
	"github.com/example/exterminus/internal/schedule"
)

// TimeOffRepository captures the persistence interactions needed by the time-off service.
type TimeOffRepository interface {
	CreateTimeOff(ctx context.Context, entry persistence.TimeOff) (persistence.TimeOff, error)
	GetTimeOff(ctx context.Context, id int64) (persistence.TimeOffDetail, error)
	DeleteTimeOff(ctx context.Context, id int64) error
}

// TechnicianDirectory resolves technicians for time off.
type TechnicianDirectory interface {
	TechnicianExists(ctx context.Context, id int64) (bool, error)
}

// UserDirectory resolves accounts.
type UserDirectory interface {
	GetUser(ctx context.Context, id int64) (persistence.User, error)
}

// TimeOffService records technician unavailability.
type TimeOffService struct {
	entries     TimeOffRepository
	technicians TechnicianDirectory
	users       UserDirectory
	logger      *slog.Logger
}

// NewTimeOffService wires dependencies for time-off operations.
func NewTimeOffService(entries TimeOffRepository, technicians TechnicianDirectory, users UserDirectory, logger *slog.Logger) *TimeOffService {
	return &TimeOffService{entries: entries, technicians: technicians, users: users, logger: defaultLogger(logger)}
}

// AddTimeOff validates input and stores the window. A blank end date means a
// single day.
func (s *TimeOffService) AddTimeOff(ctx context.Context, principal Principal, input TimeOffInput) (TimeOffEntry, error) {
	if s == nil || s.entries == nil || s.technicians == nil {
		return TimeOffEntry{}, fmt.Errorf("TimeOffService is not configured")
	}
	logger := serviceLogger(ctx, s.logger, "TimeOffService", "AddTimeOff", "user_id", principal.UserID)

	entry, vErr := parseTimeOffInput(input)
	if vErr.HasErrors() {
		logFailure(ctx, logger, "time off rejected", vErr)
		return TimeOffEntry{}, vErr
	}

	exists, err := s.technicians.TechnicianExists(ctx, entry.TechnicianID)
	if err != nil {
		return TimeOffEntry{}, mapRepoError(err)
	}
	if !exists {
		vErr := &ValidationError{}
		vErr.add("technician_id", "Technician not found.")
		logFailure(ctx, logger, "time off rejected", vErr)
		return TimeOffEntry{}, vErr
	}

	created, err := s.entries.CreateTimeOff(ctx, entry)
	if err != nil {
		err = mapRepoError(err)
		logFailure(ctx, logger, "time off not stored", err)
		return TimeOffEntry{}, err
	}

	logger.InfoContext(ctx, "time off added", "time_off_id", created.ID, "technician_id", created.TechnicianID)
	detail, err := s.entries.GetTimeOff(ctx, created.ID)
	if err != nil {
		return TimeOffEntry{}, mapRepoError(err)
	}
	return newTimeOffEntry(detail), nil
}

// DeleteTimeOff removes a time-off window. Admins and managers may delete any
// entry; technicians only their own, matched by roster name.
func (s *TimeOffService) DeleteTimeOff(ctx context.Context, principal Principal, id int64) error {
	if s == nil || s.entries == nil {
		return fmt.Errorf("TimeOffService is not configured")
	}
	logger := serviceLogger(ctx, s.logger, "TimeOffService", "DeleteTimeOff", "user_id", principal.UserID, "time_off_id", id)

	entry, err := s.entries.GetTimeOff(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		logFailure(ctx, logger, "time off delete failed", err)
		return err
	}

	if err := s.authorizeDelete(ctx, principal, entry); err != nil {
		logFailure(ctx, logger, "time off delete denied", err)
		return err
	}

	if err := s.entries.DeleteTimeOff(ctx, id); err != nil {
		err = mapRepoError(err)
		logFailure(ctx, logger, "time off delete failed", err)
		return err
	}
	logger.InfoContext(ctx, "time off deleted")
	return nil
}

func (s *TimeOffService) authorizeDelete(ctx context.Context, principal Principal, entry persistence.TimeOffDetail) error {
	if principal.HasRole(RoleAdmin, RoleManager) {
		return nil
	}
	if !principal.HasRole(RoleTechnician) || s.users == nil {
		return ErrUnauthorized
	}
	account, err := s.users.GetUser(ctx, principal.UserID)
	if err != nil {
		if err = mapRepoError(err); errors.Is(err, ErrNotFound) {
			return ErrSessionExpired
		}
		return err
	}
	if newUser(account).RosterName() != entry.TechnicianName {
		return ErrUnauthorized
	}
	return nil
}

func parseTimeOffInput(input TimeOffInput) (persistence.TimeOff, *ValidationError) {
	vErr := &ValidationError{}
	var entry persistence.TimeOff

	rawTech := strings.TrimSpace(input.TechnicianID)
	if rawTech == "" {
		vErr.add("technician_id", "Technician is required.")
	} else if id, err := strconv.ParseInt(rawTech, 10, 64); err != nil {
		vErr.add("technician_id", "Technician not found.")
	} else {
		entry.TechnicianID = id
	}

	start, ok := schedule.ParseDate(input.StartDate)
	if !ok {
		vErr.add("start_date", "Start date is required.")
	}
	end := start
	if strings.TrimSpace(input.EndDate) != "" {
		if end, ok = schedule.ParseDate(input.EndDate); !ok {
			vErr.add("end_date", "End date is invalid.")
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		vErr.add("end_date", "End date cannot be before start date.")
	}

	entry.StartDate = start
	entry.EndDate = end
	entry.Reason = strings.TrimSpace(input.Reason)
	return entry, vErr
}

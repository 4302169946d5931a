package application

import (
	"strings"
	"time"

	"github.com/example/exterminus/internal/persistence"
	"github.com/example/exterminus/internal/scheduler"
)

// Roles known to the calendar.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleTechnician = "technician"
	RoleSales      = "sales"
)

// NormalizeRole lowercases role and expands the "tech" shorthand.
func NormalizeRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "tech" {
		return RoleTechnician
	}
	return role
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleTechnician, RoleSales:
		return true
	}
	return false
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID int64
	Role   string
}

// HasRole reports whether the principal holds any of roles.
func (p Principal) HasRole(roles ...string) bool {
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}

func (p Principal) actor() *int64 {
	if p.UserID == 0 {
		return nil
	}
	id := p.UserID
	return &id
}

// Job is a stored job decorated with its calendar labels.
type Job struct {
	persistence.JobDetail
	DisplayTitle    string
	TechnicianLabel string
}

func newJob(detail persistence.JobDetail) Job {
	return Job{
		JobDetail:       detail,
		DisplayTitle:    scheduler.DisplayTitle(detail.JobType, detail.Title),
		TechnicianLabel: scheduler.TechnicianLabel(detail.TwoMan, detail.TechnicianName),
	}
}

// TimeOffEntry is a time-off window as shown on the calendar.
type TimeOffEntry struct {
	ID             int64
	TechnicianID   int64
	TechnicianName string
	StartDate      time.Time
	EndDate        time.Time
	Reason         string
}

func newTimeOffEntry(detail persistence.TimeOffDetail) TimeOffEntry {
	return TimeOffEntry{
		ID:             detail.ID,
		TechnicianID:   detail.TechnicianID,
		TechnicianName: detail.TechnicianName,
		StartDate:      detail.StartDate,
		EndDate:        detail.EndDate,
		Reason:         detail.Reason,
	}
}

// TimeOffInput carries raw time-off fields as submitted.
type TimeOffInput struct {
	TechnicianID string
	StartDate    string
	EndDate      string
	Reason       string
}

// LockState is the outcome of a lock toggle.
type LockState struct {
	Date   time.Time
	Locked bool
}

// MonthView is everything needed to render one calendar month. Map keys are
// YYYY-MM-DD dates.
type MonthView struct {
	Year          int
	Month         time.Month
	Weeks         [][]time.Time
	JobsByDate    map[string][]Job
	TimeOffByDate map[string][]TimeOffEntry
	Locked        map[string]bool
	Holidays      map[string]string
	TypeAbbr      map[string]string
}

// DayView is the detail of a single calendar date.
type DayView struct {
	Date    time.Time
	Locked  bool
	Jobs    []Job
	TimeOff []TimeOffEntry
}

// User is an account as exposed by the services.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
	Role      string
}

func newUser(u persistence.User) User {
	return User{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Username: u.Username, Role: u.Role}
}

// RosterName is the technician name derived from an account: first and last
// name, or the username when both are blank.
func (u User) RosterName() string {
	if name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName)); name != "" {
		return name
	}
	return u.Username
}

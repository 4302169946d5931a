package persistence

import "time"

// User is an account that can act on the calendar.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
	Role      string
}

// Technician is a roster entry jobs and time off are assigned to.
type Technician struct {
	ID   int64
	Name string
}

// Job is a scheduled service appointment. Empty strings persist as NULL and a
// nil EndDate means the job covers only StartDate.
type Job struct {
	ID               int64
	Title            string
	JobType          string
	Price            *float64
	StartDate        time.Time
	EndDate          *time.Time
	StartTime        string
	EndTime          string
	TimeRange        string
	Notes            string
	TechnicianID     *int64
	TwoMan           bool
	ReiQuantity      *int64
	ReiZip           string
	ReiCityName      string
	ExclusionSubtype string
	FumigationType   string
	TargetPest       string
	CustomPest       string
	CreatedBy        *int64
	CreatedAt        time.Time
	LastModified     *time.Time
	LastModifiedBy   *int64
}

// JobDetail is a job joined with the names shown next to it.
type JobDetail struct {
	Job
	TechnicianName         string
	CreatedByUsername      string
	LastModifiedByUsername string
}

// JobUpdate holds the columns an edit may change.
type JobUpdate struct {
	Title          string
	JobType        string
	Price          *float64
	StartDate      time.Time
	EndDate        *time.Time
	StartTime      string
	EndTime        string
	TimeRange      string
	Notes          string
	FumigationType string
	TargetPest     string
	TechnicianID   *int64
	TwoMan         bool
	ModifiedBy     *int64
}

// Lock marks a date closed to new jobs.
type Lock struct {
	ID       int64
	Date     time.Time
	LockedBy *int64
	LockedAt time.Time
}

// TimeOff is a technician's unavailability window.
type TimeOff struct {
	ID           int64
	TechnicianID int64
	StartDate    time.Time
	EndDate      time.Time
	Reason       string
}

// TimeOffDetail is a time-off row joined with its technician's name.
type TimeOffDetail struct {
	TimeOff
	TechnicianName string
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/example/exterminus/internal/schedule"
)

// Validation messages surfaced to users.
const (
	MsgEndTimeOrder      = "End time must be after start time."
	MsgTitleRequired     = "Title is required."
	MsgStartRequired     = "Start date is required."
	MsgStartInvalid      = "Start date is invalid."
	MsgEndBeforeStart    = "End date cannot be before start date."
	MsgPriceInvalid      = "Price must be a number."
	MsgReiQuantityFormat = "REI quantity must be a whole number."
)

const defaultTimeRange = "any"

// ValidationError is a user-correctable composition failure.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}

// ZipLookup resolves a 5-digit ZIP code to a city name. An empty city means
// no match.
type ZipLookup interface {
	LookupCity(ctx context.Context, zip string) (string, error)
}

// JobForm carries raw job fields as submitted. Every field is optional at the
// boundary; Compose decides which are required.
type JobForm struct {
	Title            string `json:"title"`
	JobType          string `json:"job_type"`
	CustomType       string `json:"custom_type"`
	Price            string `json:"price"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	TimeRange        string `json:"time_range"`
	Notes            string `json:"notes"`
	Technician       string `json:"technician_id"`
	ReiQuantity      string `json:"rei_quantity"`
	ReiZip           string `json:"rei_zip"`
	ExclusionSubtype string `json:"exclusion_subtype"`
	FumigationType   string `json:"fumigation_type"`
	TargetPest       string `json:"target_pest"`
	CustomPest       string `json:"custom_pest"`
}

// Payload is a validated, normalized job ready to persist. Empty strings and
// nil pointers persist as NULL; a zero EndDate means single day.
type Payload struct {
	Title            string
	JobType          string
	Price            *float64
	StartDate        time.Time
	EndDate          time.Time
	StartTime        string
	EndTime          string
	TimeRange        string
	Notes            string
	Assignment       Assignment
	ReiQuantity      *int64
	ReiZip           string
	ReiCityName      string
	ExclusionSubtype string
	FumigationType   string
	TargetPest       string
	CustomPest       string
}

// Span returns the payload's calendar span.
func (p Payload) Span() schedule.Span {
	return schedule.NewSpan(p.StartDate, p.EndDate)
}

// Composer applies the job-type rules to raw forms.
type Composer struct {
	technicians TechnicianChecker
	zips        ZipLookup
	logger      *slog.Logger
}

// NewComposer wires the technician roster and ZIP collaborators. Either may be
// nil, which skips that lookup.
func NewComposer(technicians TechnicianChecker, zips ZipLookup, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{technicians: technicians, zips: zips, logger: logger}
}

// ComposeNew parses the form dates for a new job and composes it. The end date
// defaults to the start date; an unparsable end date is dropped.
func (c *Composer) ComposeNew(ctx context.Context, form JobForm) (Payload, error) {
	startRaw := strings.TrimSpace(form.StartDate)
	if startRaw == "" {
		return Payload{}, invalid(MsgStartRequired)
	}
	start, ok := schedule.ParseDate(startRaw)
	if !ok {
		return Payload{}, invalid(MsgStartRequired)
	}
	endRaw := strings.TrimSpace(form.EndDate)
	if endRaw == "" {
		endRaw = startRaw
	}
	end, _ := schedule.ParseDate(endRaw)
	return c.Compose(ctx, form, start, end)
}

// Compose validates form against the job rules for the given dates.
//
// Steps run in a fixed order: times, time range, technician, ZIP lookup,
// pest, job type, then the REI or title requirement. The first failing
// step decides the returned *ValidationError, except REI field checks which
// report every missing field at once.
func (c *Composer) Compose(ctx context.Context, form JobForm, start, end time.Time) (Payload, error) {
	startTime, endTime, timeRange, err := normalizeTimes(form)
	if err != nil {
		return Payload{}, err
	}

	assignment, err := ResolveTechnician(ctx, form.Technician, c.technicians)
	if err != nil {
		return Payload{}, err
	}

	jobType := ResolveJobType(form.JobType, form.CustomType)

	reiZip := strings.TrimSpace(form.ReiZip)
	var reiCity string
	if IsRei(jobType) && isZipCode(reiZip) {
		reiCity = c.lookupCity(ctx, reiZip)
	}

	payload := Payload{
		Title:            strings.TrimSpace(form.Title),
		JobType:          jobType,
		StartDate:        schedule.Day(start),
		StartTime:        startTime,
		EndTime:          endTime,
		TimeRange:        timeRange,
		Notes:            form.Notes,
		Assignment:       assignment,
		ReiZip:           reiZip,
		ReiCityName:      reiCity,
		ExclusionSubtype: strings.TrimSpace(form.ExclusionSubtype),
		FumigationType:   strings.TrimSpace(form.FumigationType),
		TargetPest:       ResolvePest(form.TargetPest, form.CustomPest),
		CustomPest:       strings.TrimSpace(form.CustomPest),
	}
	if !end.IsZero() {
		payload.EndDate = schedule.Day(end)
	}

	if IsRei(jobType) {
		quantity, err := applyRei(&payload, form.ReiQuantity)
		if err != nil {
			return Payload{}, err
		}
		payload.ReiQuantity = quantity
		return payload, nil
	}

	if payload.Title == "" {
		return Payload{}, invalid(MsgTitleRequired)
	}
	price, err := ParsePrice(form.Price)
	if err != nil {
		return Payload{}, err
	}
	payload.Price = price
	return payload, nil
}

// ComposeEdit validates an edit of an existing job. Unlike creation it requires
// a valid start date and an end date on or after it. REI edits keep the REI
// invariant but do not re-require the REI fields.
func (c *Composer) ComposeEdit(ctx context.Context, form JobForm) (Payload, error) {
	startTime, endTime, timeRange, err := normalizeTimes(form)
	if err != nil {
		return Payload{}, err
	}

	startRaw := strings.TrimSpace(form.StartDate)
	endRaw := strings.TrimSpace(form.EndDate)
	if endRaw == "" {
		endRaw = startRaw
	}
	start, ok := schedule.ParseDate(startRaw)
	if !ok {
		return Payload{}, invalid(MsgStartInvalid)
	}
	end, _ := schedule.ParseDate(endRaw)
	if !end.IsZero() && end.Before(start) {
		return Payload{}, invalid(MsgEndBeforeStart)
	}

	jobType := ResolveJobType(form.JobType, form.CustomType)
	title := strings.TrimSpace(form.Title)
	if !IsRei(jobType) && title == "" {
		return Payload{}, invalid(MsgTitleRequired)
	}

	assignment, err := ResolveTechnician(ctx, form.Technician, c.technicians)
	if err != nil {
		return Payload{}, err
	}

	payload := Payload{
		Title:          title,
		JobType:        jobType,
		StartDate:      start,
		EndDate:        end,
		StartTime:      startTime,
		EndTime:        endTime,
		TimeRange:      timeRange,
		Notes:          form.Notes,
		Assignment:     assignment,
		FumigationType: strings.TrimSpace(form.FumigationType),
		TargetPest:     ResolvePest(form.TargetPest, form.CustomPest),
	}

	if IsRei(jobType) {
		payload.Title = ReiTitle
		payload.EndDate = payload.StartDate
		return payload, nil
	}

	price, err := ParsePrice(form.Price)
	if err != nil {
		return Payload{}, err
	}
	payload.Price = price
	return payload, nil
}

// ResolveJobType lowercases and trims the type tag. The "custom" tag is
// replaced by the trimmed custom type, with its case preserved.
func ResolveJobType(jobType, customType string) string {
	jobType = strings.ToLower(strings.TrimSpace(jobType))
	if jobType == customJobType {
		return strings.TrimSpace(customType)
	}
	return jobType
}

// ResolvePest prefers a non-blank custom pest over the selected target pest.
func ResolvePest(targetPest, customPest string) string {
	if custom := strings.TrimSpace(customPest); custom != "" {
		return custom
	}
	return strings.TrimSpace(targetPest)
}

// ParsePrice reads an optional decimal price. Blank input yields nil.
func ParsePrice(raw string) (*float64, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, invalid(MsgPriceInvalid)
	}
	return &value, nil
}

func normalizeTimes(form JobForm) (string, string, string, error) {
	startTime, _ := schedule.NormalizeTime(form.StartTime)
	endTime, _ := schedule.NormalizeTime(form.EndTime)
	if err := schedule.CheckTimeOrder(startTime, endTime); err != nil {
		return "", "", "", invalid(MsgEndTimeOrder)
	}
	timeRange, ok := schedule.DeriveTimeRange(startTime, endTime)
	if !ok {
		timeRange = strings.TrimSpace(form.TimeRange)
	}
	if timeRange == "" {
		timeRange = defaultTimeRange
	}
	return startTime, endTime, timeRange, nil
}

// applyRei forces the REI invariant onto payload and checks the REI fields.
func applyRei(payload *Payload, rawQuantity string) (*int64, error) {
	payload.Title = ReiTitle
	payload.Price = nil
	payload.EndDate = payload.StartDate

	rawQuantity = strings.TrimSpace(rawQuantity)
	var missing []string
	if rawQuantity == "" {
		missing = append(missing, "REI quantity")
	}
	if payload.ReiZip == "" {
		missing = append(missing, "REI ZIP")
	}
	if strings.TrimSpace(payload.ReiCityName) == "" {
		missing = append(missing, "REI city name")
	}
	if len(missing) > 0 {
		return nil, invalid(fmt.Sprintf("Missing required REI field(s): %s.", strings.Join(missing, ", ")))
	}

	quantity, err := strconv.ParseInt(rawQuantity, 10, 64)
	if err != nil {
		return nil, invalid(MsgReiQuantityFormat)
	}
	return &quantity, nil
}

func (c *Composer) lookupCity(ctx context.Context, zip string) string {
	if c.zips == nil {
		return ""
	}
	city, err := c.zips.LookupCity(ctx, zip)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.WarnContext(ctx, "zip lookup failed", "zip", zip, "error", err)
		}
		return ""
	}
	return strings.TrimSpace(city)
}

func isZipCode(value string) bool {
	if len(value) != zipCodeLength {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Package authz decides which roles may perform which calendar actions.
//
// Reads (calendar, jobs, technicians) and time-off deletion are open to every
// role; time-off deletion is further restricted to owners by the service
// layer. Everything else is listed in policy.csv.
package authz

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Resources.
const (
	ResourceCalendar    = "calendar"
	ResourceJobs        = "jobs"
	ResourceLocks       = "locks"
	ResourceTimeOff     = "timeoff"
	ResourceTechnicians = "technicians"
	ResourceUsers       = "users"
)

// Actions.
const (
	ActionRead    = "read"
	ActionCreate  = "create"
	ActionMove    = "move"
	ActionEdit    = "edit"
	ActionDelete  = "delete"
	ActionToggle  = "toggle"
	ActionPromote = "promote"
)

// Roles granted the open actions.
var allRoles = []string{"admin", "manager", "technician", "sales"}

var openActions = [][2]string{
	{ResourceCalendar, ActionRead},
	{ResourceJobs, ActionRead},
	{ResourceTechnicians, ActionRead},
	{ResourceTimeOff, ActionDelete},
}

//go:embed model.conf
var modelText string

//go:embed policy.csv
var policyText string

// Authorizer enforces the role policy. It is safe for concurrent use.
type Authorizer struct {
	enforcer *casbin.SyncedEnforcer
}

// New loads the embedded model and policy.
func New() (*Authorizer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("authz: load model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: create enforcer: %w", err)
	}

	rules, err := parsePolicy(policyText)
	if err != nil {
		return nil, err
	}
	for _, role := range allRoles {
		for _, open := range openActions {
			rules = append(rules, []string{role, open[0], open[1]})
		}
	}
	if _, err := enforcer.AddPolicies(rules); err != nil {
		return nil, fmt.Errorf("authz: add policies: %w", err)
	}
	return &Authorizer{enforcer: enforcer}, nil
}

// Allowed reports whether role may perform action on resource.
func (a *Authorizer) Allowed(role, resource, action string) (bool, error) {
	ok, err := a.enforcer.Enforce(strings.ToLower(strings.TrimSpace(role)), resource, action)
	if err != nil {
		return false, fmt.Errorf("authz: enforce %s %s for %q: %w", action, resource, role, err)
	}
	return ok, nil
}

func parsePolicy(text string) ([][]string, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comment = '#'
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = 4

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("authz: parse policy: %w", err)
	}
	rules := make([][]string, 0, len(records))
	for _, record := range records {
		if record[0] != "p" {
			return nil, fmt.Errorf("authz: unsupported policy type %q", record[0])
		}
		rules = append(rules, record[1:])
	}
	return rules, nil
}

package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// TwoManSelector is the form value that assigns a job to both technicians.
const TwoManSelector = "__BOTH__"

// TechnicianChecker reports whether a technician id exists in the roster.
type TechnicianChecker interface {
	TechnicianExists(ctx context.Context, id int64) (bool, error)
}

// Assignment is the resolved technician selection for a job. TechnicianID and
// TwoMan are never both set.
type Assignment struct {
	TechnicianID *int64
	TwoMan       bool
}

// ResolveTechnician maps a raw selector to an assignment. Blank, unparsable
// and unknown ids fall back to unassigned without error. Only a failing
// checker is reported. A nil checker skips the existence check.
func ResolveTechnician(ctx context.Context, raw string, checker TechnicianChecker) (Assignment, error) {
	if raw == TwoManSelector {
		return Assignment{TwoMan: true}, nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Assignment{}, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Assignment{}, nil
	}
	if checker != nil {
		exists, err := checker.TechnicianExists(ctx, id)
		if err != nil {
			return Assignment{}, fmt.Errorf("check technician %d: %w", id, err)
		}
		if !exists {
			return Assignment{}, nil
		}
	}
	return Assignment{TechnicianID: &id}, nil
}

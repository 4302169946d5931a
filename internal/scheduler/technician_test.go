package scheduler

import (
	"context"
	"errors"
	"testing"
)

type stubRoster struct {
	ids   map[int64]bool
	err   error
	calls int
}

func (s *stubRoster) TechnicianExists(_ context.Context, id int64) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.ids[id], nil
}

func TestResolveTechnician(t *testing.T) {
	t.Parallel()

	roster := &stubRoster{ids: map[int64]bool{7: true}}

	tests := []struct {
		name       string
		raw        string
		wantID     int64
		wantTwoMan bool
	}{
		{name: "two man selector", raw: TwoManSelector, wantTwoMan: true},
		{name: "blank", raw: "  "},
		{name: "not a number", raw: "abc"},
		{name: "unknown id", raw: "99"},
		{name: "known id", raw: "7", wantID: 7},
	}

	for _, tc := range tests {
		got, err := ResolveTechnician(context.Background(), tc.raw, roster)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got.TwoMan != tc.wantTwoMan {
			t.Fatalf("%s: expected two man %v, got %v", tc.name, tc.wantTwoMan, got.TwoMan)
		}
		if tc.wantID == 0 && got.TechnicianID != nil {
			t.Fatalf("%s: expected unassigned, got %d", tc.name, *got.TechnicianID)
		}
		if tc.wantID != 0 && (got.TechnicianID == nil || *got.TechnicianID != tc.wantID) {
			t.Fatalf("%s: expected technician %d, got %v", tc.name, tc.wantID, got.TechnicianID)
		}
	}
}

func TestResolveTechnician_SkipsCheckWithoutRoster(t *testing.T) {
	t.Parallel()

	got, err := ResolveTechnician(context.Background(), "12", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TechnicianID == nil || *got.TechnicianID != 12 {
		t.Fatalf("expected technician 12, got %v", got.TechnicianID)
	}
}

func TestResolveTechnician_PropagatesRosterFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("database unavailable")
	_, err := ResolveTechnician(context.Background(), "3", &stubRoster{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("expected roster failure to propagate, got %v", err)
	}
}

package scheduler

// ReiJobType is the reserved job type with REI field rules.
const ReiJobType = "rei"

// ReiTitle replaces the stored title of every REI job.
const ReiTitle = "REIs"

const (
	untitled      = "(Untitled)"
	twoManLabel   = "Two Man"
	customJobType = "custom"
	zipCodeLength = 5
)

var typeAbbreviations = map[string]string{
	"fumigation":  "F",
	"insulation":  "I",
	"exclusion":   "EX",
	"rei":         "REIs",
	"borate":      "B",
	"bird work":   "BW",
	"poly":        "P",
	"power spray": "PS",
}

// TypeAbbreviations returns the short calendar labels keyed by job type.
func TypeAbbreviations() map[string]string {
	out := make(map[string]string, len(typeAbbreviations))
	for k, v := range typeAbbreviations {
		out[k] = v
	}
	return out
}

// IsRei reports whether a resolved job type is the REI type. Custom types
// keep their case, so a custom "REI" is an ordinary job.
func IsRei(jobType string) bool {
	return jobType == ReiJobType
}

// DisplayTitle is the title shown on the day view.
func DisplayTitle(jobType, title string) string {
	if IsRei(jobType) {
		return ReiTitle
	}
	if title == "" {
		return untitled
	}
	return title
}

// TechnicianLabel is the short assignee label shown on calendar cells.
func TechnicianLabel(twoMan bool, technicianName string) string {
	if twoMan {
		return twoManLabel
	}
	return technicianName
}

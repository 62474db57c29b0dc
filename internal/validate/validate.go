package validate

import (
	"fmt"
	"math"
	"sort"

	"posebvh/internal/bvh"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeMissingJoint = "missing_joint"
	codeUnknownJoint = "unknown_joint"
	codeOutOfRange   = "out_of_range"
	codeNonFinite    = "non_finite"
)

// Issue describes one finding. Frame is the first affected frame (0-based)
// and Count the number of affected frames.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Joint    string   `json:"joint"`
	Frame    int      `json:"frame"`
	Count    int      `json:"count"`
}

type Report struct {
	Frames int     `json:"frames"`
	Issues []Issue `json:"issues"`
}

func (r *Report) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Run inspects a capture before encoding. None of the warnings stop an
// export: missing joints are defaulted and out-of-range values are written as
// is. Non-finite coordinates are errors because they would be written as NaN
// or Inf tokens that BVH readers reject.
func Run(frames []bvh.Frame) (*Report, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("validating capture: %w", bvh.ErrEmptyInput)
	}

	report := &Report{Frames: len(frames), Issues: make([]Issue, 0)}
	missing := newTally()
	unknown := newTally()
	outOfRange := newTally()

	for i, frame := range frames {
		for _, joint := range bvh.Joints {
			sample, ok := frame[joint]
			if !ok {
				missing.add(joint, i)
				continue
			}
			if !finite(sample) {
				report.Issues = append(report.Issues, Issue{
					Severity: SeverityError,
					Code:     codeNonFinite,
					Message:  fmt.Sprintf("non-finite coordinate %v", sample),
					Joint:    joint,
					Frame:    i,
					Count:    1,
				})
				continue
			}
			if sample.X < 0 || sample.X > 1 || sample.Y < 0 || sample.Y > 1 {
				outOfRange.add(joint, i)
			}
		}
		for name := range frame {
			if !bvh.IsJoint(name) {
				unknown.add(name, i)
			}
		}
	}

	report.Issues = append(report.Issues, missing.issues(SeverityWarn, codeMissingJoint, "joint missing, default position used", len(frames))...)
	report.Issues = append(report.Issues, outOfRange.issues(SeverityWarn, codeOutOfRange, "x or y outside [0,1]", len(frames))...)
	report.Issues = append(report.Issues, unknown.issues(SeverityWarn, codeUnknownJoint, "not a skeleton joint, ignored", len(frames))...)

	return report, nil
}

type tally struct {
	first map[string]int
	count map[string]int
}

func newTally() *tally {
	return &tally{first: make(map[string]int), count: make(map[string]int)}
}

func (t *tally) add(joint string, frame int) {
	if _, ok := t.first[joint]; !ok {
		t.first[joint] = frame
	}
	t.count[joint]++
}

func (t *tally) issues(severity Severity, code, message string, total int) []Issue {
	names := make([]string, 0, len(t.count))
	for name := range t.count {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return jointRank(names[i]) < jointRank(names[j]) ||
			(jointRank(names[i]) == jointRank(names[j]) && names[i] < names[j])
	})

	out := make([]Issue, 0, len(names))
	for _, name := range names {
		out = append(out, Issue{
			Severity: severity,
			Code:     code,
			Message:  fmt.Sprintf("%s in %d of %d frames", message, t.count[name], total),
			Joint:    name,
			Frame:    t.first[name],
			Count:    t.count[name],
		})
	}
	return out
}

func jointRank(name string) int {
	for i, joint := range bvh.Joints {
		if joint == name {
			return i
		}
	}
	return len(bvh.Joints)
}

func finite(s bvh.Sample) bool {
	for _, v := range []float64{s.X, s.Y, s.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

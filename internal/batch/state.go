package batch

import "time"

// Status is the result class of one file.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// ReasonAlreadyProtected is recorded for files that carry a watermark.
const ReasonAlreadyProtected = "Already protected"

// Outcome is what happened to one input file.
type Outcome struct {
	Input  string
	Status Status
	// Output is the protected code path, set on success.
	Output string
	// Reason explains a skip or failure.
	Reason string
}

// Summary aggregates every outcome of a run. Outcomes are only appended to.
type Summary struct {
	Outcomes []Outcome
	Elapsed  time.Duration
}

func (s *Summary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
}

// Total returns the number of files with an outcome.
func (s Summary) Total() int { return len(s.Outcomes) }

// Succeeded returns the successful outcomes.
func (s Summary) Succeeded() []Outcome { return s.filter(StatusSucceeded) }

// Skipped returns the skipped outcomes.
func (s Summary) Skipped() []Outcome { return s.filter(StatusSkipped) }

// Failed returns the failed outcomes.
func (s Summary) Failed() []Outcome { return s.filter(StatusFailed) }

func (s Summary) filter(st Status) []Outcome {
	var out []Outcome
	for _, o := range s.Outcomes {
		if o.Status == st {
			out = append(out, o)
		}
	}
	return out
}

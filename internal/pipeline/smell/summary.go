package smell

import (
	"encoding/json"
	"time"
)

// FileResult is the outcome of one file's run.
type FileResult struct {
	Path     string `json:"path"`
	Issues   int    `json:"issues"`
	Context  string `json:"context,omitempty"`
	Changed  bool   `json:"changed"`
	Fallback bool   `json:"fallback"`
	Saved    bool   `json:"saved"`
	Error    string `json:"error,omitempty"`
}

// Summary records one pipeline run.
type Summary struct {
	Root       string       `json:"root"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Files      []FileResult `json:"files"`
}

// Changed reports how many files got new content.
func (s Summary) Changed() int {
	n := 0
	for _, f := range s.Files {
		if f.Changed {
			n++
		}
	}
	return n
}

// Failed reports how many files ended with an error.
func (s Summary) Failed() int {
	n := 0
	for _, f := range s.Files {
		if f.Error != "" {
			n++
		}
	}
	return n
}

func (s Summary) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

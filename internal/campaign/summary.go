package campaign

import "github.com/jonathan/campaign-runner/internal/types"

// Summary counts results per status.
type Summary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	NoAnswer  int `json:"no_answer"`
	Failed    int `json:"failed"`
}

// Summarize tallies results.
func Summarize(results []types.ResultRecord) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.CallStatus {
		case types.StatusCompleted:
			s.Completed++
		case types.StatusNoAnswer:
			s.NoAnswer++
		case types.StatusFailed:
			s.Failed++
		}
	}
	return s
}

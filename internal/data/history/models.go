package history

import "time"

const SchemaVersion = 1

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Run records one generation of a binding module from a header.
type Run struct {
	ID            string        `json:"id"`
	SchemaVersion int           `json:"schema_version"`
	Header        string        `json:"header"`
	LibName       string        `json:"lib_name"`
	Timestamp     time.Time     `json:"timestamp"`
	Duration      time.Duration `json:"duration"`
	Status        string        `json:"status"`
	ErrorCode     string        `json:"error_code,omitempty"`
	Message       string        `json:"message,omitempty"`
	DeclCount     int           `json:"decl_count"`
	EntryCount    int           `json:"entry_count"`
	StubCount     int           `json:"stub_count"`
	OpaqueCount   int           `json:"opaque_count"`
	OutputPath    string        `json:"output_path,omitempty"`
	// OutputHash is the hex SHA-256 of the generated module text.
	OutputHash string `json:"output_hash,omitempty"`
}

func (r Run) Succeeded() bool {
	return r.Status == StatusOK
}

// Summary aggregates the runs recorded for one header.
type Summary struct {
	Header        string        `json:"header"`
	RunCount      int           `json:"run_count"`
	FailureCount  int           `json:"failure_count"`
	OutputChanges int           `json:"output_changes"`
	AvgDuration   time.Duration `json:"avg_duration"`
	LastSuccess   time.Time     `json:"last_success,omitempty"`
	LastFailure   time.Time     `json:"last_failure,omitempty"`
}

// Summarize folds runs (oldest first) into a Summary. OutputChanges counts
// successful runs whose output differs from the previous successful run.
func Summarize(header string, runs []Run) Summary {
	s := Summary{Header: header, RunCount: len(runs)}
	var total time.Duration
	prevHash := ""
	for _, r := range runs {
		total += r.Duration
		if !r.Succeeded() {
			s.FailureCount++
			s.LastFailure = r.Timestamp
			continue
		}
		if r.OutputHash != prevHash {
			s.OutputChanges++
			prevHash = r.OutputHash
		}
		s.LastSuccess = r.Timestamp
	}
	if len(runs) > 0 {
		s.AvgDuration = total / time.Duration(len(runs))
	}
	return s
}

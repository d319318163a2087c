package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jonwraymond/clickup-go/clickup"
)

// Report is the JSON body written by Handler.
type Report struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckReport `json:"checks,omitempty"`
}

// CheckReport is one checker's entry in a Report.
type CheckReport struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	LatencyMS int64          `json:"latency_ms"`
	ErrorKind string         `json:"error_kind,omitempty"`
	Error     string         `json:"error,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// NewReport converts aggregator results to their JSON form.
func NewReport(status Status, results map[string]Result) Report {
	report := Report{
		Status:    status.String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]CheckReport, len(results)),
	}
	for name, result := range results {
		check := CheckReport{
			Status:    result.Status.String(),
			Message:   result.Message,
			LatencyMS: result.Latency.Milliseconds(),
			Details:   result.Details,
		}
		if result.Kind != clickup.KindUnknown {
			check.ErrorKind = result.Kind.String()
		}
		if result.Err != nil {
			check.Error = result.Err.Error()
		}
		report.Checks[name] = check
	}
	return report
}

// Handler serves the aggregated report.
func Handler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := agg.CheckAll(r.Context())
		status := agg.OverallStatus(results)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status.HTTPStatus())
		_ = json.NewEncoder(w).Encode(NewReport(status, results))
	}
}

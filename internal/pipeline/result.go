package pipeline

// Status classifies the outcome of one stage invocation.
type Status string

const (
	StatusSuccess        Status = "Success"
	StatusPartialFailure Status = "Partial Failure"
	StatusFailure        Status = "Failure"
)

// StageResult is returned by every stage. Per-entity failures are listed in
// FailedEntities; a fatal configuration or connection error produces a
// plain Failure with an empty list.
type StageResult struct {
	Status         Status   `json:"status"`
	Message        string   `json:"message"`
	FailedEntities []string `json:"failed_entities,omitempty"`
}

// Classify builds the result from per-entity bookkeeping: no failures is
// Success, a mix is Partial Failure, nothing succeeded (but something was
// attempted) is Failure.
func Classify(succeeded, failed []string, okMsg, partialMsg, failMsg string) StageResult {
	switch {
	case len(failed) == 0:
		return StageResult{Status: StatusSuccess, Message: okMsg}
	case len(succeeded) > 0:
		return StageResult{Status: StatusPartialFailure, Message: partialMsg, FailedEntities: failed}
	default:
		return StageResult{Status: StatusFailure, Message: failMsg, FailedEntities: failed}
	}
}

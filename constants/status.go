package constants

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

// Stable values (store these exact strings in the DB).
const (
	JobStatusQueued    JobStatus = "QUEUED"     // accepted, not yet sent to the model
	JobStatusRunning   JobStatus = "RUNNING"    // model call / rendering in progress
	JobStatusExtractOK JobStatus = "EXTRACT_OK" // tables extracted and rendered
	JobStatusFailed    JobStatus = "FAILED"     // terminal failure
)

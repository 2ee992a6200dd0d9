package models

// JobStatus is published on every transition of a compress job
type JobStatus struct {
	Id              string   `json:"id"`
	Stage           string   `json:"stage"`
	Status          string   `json:"status"`
	Filename        string   `json:"filename,omitempty"`
	Command         []string `json:"command,omitempty"`
	Progress        float64  `json:"progress"`
	ProbeDuration   int      `json:"probe_duration"`     // milliseconds
	TranscodeTime   int      `json:"transcode_duration"` // milliseconds
	SendDuration    int      `json:"send_duration"`      // milliseconds
	OutputSize      int64    `json:"output_size,omitempty"`
	FailDescription string   `json:"fail_description,omitempty"`
	ErrorCode       string   `json:"error_code"`
}

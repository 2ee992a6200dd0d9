package handler

// Error codes carried in published job statuses
const (
	Success             = "SUCCESS"
	InvalidRequest      = "INVALID_REQUEST"
	InternalServerError = "INTERNAL_SERVER_ERROR"
)

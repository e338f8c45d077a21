package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (bad config file, history not configured)
	ExitDataError   = 3 // Data error (no input produced any output)
)

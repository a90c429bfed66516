package main

import "fmt"

// Exit codes
const (
	ExitSuccess   = 0 // Success
	ExitError     = 1 // General error (invalid arguments, runtime failure)
	ExitNoMatches = 1 // Search found nothing or the picker was closed
)

// exitError ends the process with code without printing anything
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

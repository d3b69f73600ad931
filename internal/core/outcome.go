package core

import "fmt"

// Outcome is the tagged result of a user action, ready for display as a
// notification. Failures carry the mapped user message and code.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Action  string `json:"action,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Succeeded builds a successful outcome with a formatted message.
func Succeeded(format string, args ...any) Outcome {
	return Outcome{Success: true, Message: fmt.Sprintf(format, args...)}
}

// Failed builds a failed outcome from err via MapError.
func Failed(err error) Outcome {
	msg := MapError(err)
	return Outcome{
		Success: false,
		Message: msg.Message,
		Code:    msg.Code,
		Action:  msg.Action,
		Detail:  msg.Detail,
	}
}

package responses

import "fmt"

// Error describes an error for humans and machines
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e Error) Error() string {
	return fmt.Sprintf("status:%d, message:%q", e.Status, e.Message)
}

// NewError - a brand new error
func NewError(status int, message string) *Error {
	return &Error{
		Status:  status,
		Message: message,
	}
}

package service

import "fmt"

// ErrInvalidCommand rejects a command whose fields cannot be turned into a ledger request
type ErrInvalidCommand struct {
	Field  string
	Reason string
}

func (e ErrInvalidCommand) Error() string {
	return fmt.Sprintf("invalid command field %s: %s", e.Field, e.Reason)
}

func (e ErrInvalidCommand) Is(target error) bool {
	_, ok := target.(ErrInvalidCommand)
	return ok
}

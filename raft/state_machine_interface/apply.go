package state_machine_interface

type Apply interface {
	// ApplyCommand applies a committed command and returns its result
	ApplyCommand(command string) string
}

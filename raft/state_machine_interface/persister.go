package state_machine_interface

type Persister interface {
	SaveState(state []byte) error // record the latest hard state
	ReadState() ([]byte, error)   // latest recorded hard state
}

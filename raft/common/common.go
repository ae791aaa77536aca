package common

type Status int

const (
	Follower Status = iota + 1
	Candidate
	Leader
)

func (s Status) String() string {
	switch s {
	case Follower:
		return "follower"
	case Candidate:
		return "candidate"
	case Leader:
		return "leader"
	default:
		return "unknown"
	}
}

const (
	ElectionBaseTimeout     = 150 // election timeout lower bound (ms)
	ElectionMaxExtraTimeout = 150 // extra random election timeout (ms)
	HeartbeatInterval       = 50  // leader heartbeat interval (ms)

	// NoVote marks votedFor as empty for the current term.
	NoVote = -1
)

type LogEntry struct {
	Command string // opaque command payload
	Term    int    // term in which the leader created the entry
	Index   int    // log index, first real entry is 1
}

// State is the hard state a node must make durable before answering a
// RequestVote or AppendEntries that changed it.
type State struct {
	Id          int `json:"id"`
	CurrentTerm int `json:"current_term"`
	VotedFor    int `json:"voted_for"`
	LastIndex   int `json:"last_index"`
	LastTerm    int `json:"last_term"`
}

package raft

import (
	"time"
)

// Propose appends command to the leader's log in the current term. It is
// how a harness feeds the replication path; there is no redirect and no
// completion notice. The entry is shipped with the next heartbeat.
func (r *Raft) Propose(command string, _ time.Time) (index int, term int, err error) {
	l, ok := r.role.(*Leader)
	if !ok {
		r.logger.Debugf("command %q dropped, not the leader", command)
		return 0, r.state.currentTerm, ErrNotLeader
	}
	entry := r.state.appendCommand(command)
	r.logger.Debugf("command %q appended at index %d term %d", command, entry.Index, entry.Term)
	// a single member cluster commits on its own
	l.advanceCommitIndex(r.state)
	r.checkInvariants()
	return entry.Index, entry.Term, nil
}

package raft

// applyLog moves lastApplied up to commitIndex, handing each command to the
// apply hook when one is installed.
func (s *NodeState) applyLog() {
	for i := s.lastApplied + 1; i <= s.commitIndex; i++ {
		entry, ok := s.log.Entry(i)
		if !ok {
			break
		}
		if s.apply != nil {
			result := s.apply.ApplyCommand(entry.Command)
			s.logger.Debugf("applied index %d term %d command %q -> %q", i, entry.Term, entry.Command, result)
		}
		s.lastApplied = i
	}
}

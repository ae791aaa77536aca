package raft

import (
	"go_raft_sim/raft/common"
)

// handleRequestVote applies the vote granting rule shared by every role.
// Candidates and leaders have already voted for themselves in their term,
// so only a follower can ever grant here.
func (s *NodeState) handleRequestVote(req *RequestVoteReq) *RequestVoteResp {
	resp := &RequestVoteResp{Term: s.currentTerm, From: s.me}
	if req.Term != s.currentTerm {
		return resp
	}
	if s.votedFor != common.NoVote && s.votedFor != req.CandidateId {
		s.logger.Debugf("reject vote for %d in term %d, already voted for %d", req.CandidateId, s.currentTerm, s.votedFor)
		return resp
	}
	if !s.isLogUpToDate(req.LastLogTerm, req.LastLogIndex) {
		s.logger.Debugf("reject vote for %d, log %d/%d behind %d/%d",
			req.CandidateId, req.LastLogIndex, req.LastLogTerm, s.log.LastIndex(), s.log.LastTerm())
		return resp
	}
	s.voteFor(req.CandidateId)
	resp.VoteGranted = true
	s.logger.Debugf("grant vote for %d in term %d", req.CandidateId, s.currentTerm)
	return resp
}

// isLogUpToDate reports whether a log ending at (lastTerm, lastIndex) is at
// least as up-to-date as ours: later last term wins, equal terms compare length.
func (s *NodeState) isLogUpToDate(lastTerm, lastIndex int) bool {
	ourTerm := s.log.LastTerm()
	if lastTerm != ourTerm {
		return lastTerm > ourTerm
	}
	return lastIndex >= s.log.LastIndex()
}

package raft

import (
	"fmt"

	"go_raft_sim/raft/common"
)

// Message is one of *RequestVoteReq, *RequestVoteResp, *AppendEntriesReq or
// *AppendEntriesResp. Messages are never mutated after they are created.
type Message interface {
	GetTerm() int
	isMessage()
}

type RequestVoteReq struct {
	Term         int
	CandidateId  int
	LastLogIndex int
	LastLogTerm  int
}

type RequestVoteResp struct {
	Term        int
	VoteGranted bool
	From        int
}

type AppendEntriesReq struct {
	Term         int
	LeaderId     int
	PrevLogIndex int
	PrevLogTerm  int
	Entries      []common.LogEntry // empty for heartbeat
	LeaderCommit int
}

type AppendEntriesResp struct {
	Term       int
	Success    bool
	From       int
	MatchIndex int // last index known to match the leader, 0 on failure
}

func (m *RequestVoteReq) GetTerm() int { return m.Term }
func (m *RequestVoteResp) GetTerm() int { return m.Term }
func (m *AppendEntriesReq) GetTerm() int { return m.Term }
func (m *AppendEntriesResp) GetTerm() int { return m.Term }

func (*RequestVoteReq) isMessage() {}
func (*RequestVoteResp) isMessage() {}
func (*AppendEntriesReq) isMessage() {}
func (*AppendEntriesResp) isMessage() {}

func (m *RequestVoteReq) String() string {
	return fmt.Sprintf("RequestVote{term:%d candidate:%d last:%d/%d}", m.Term, m.CandidateId, m.LastLogIndex, m.LastLogTerm)
}

func (m *RequestVoteResp) String() string {
	return fmt.Sprintf("RequestVoteResp{term:%d granted:%t from:%d}", m.Term, m.VoteGranted, m.From)
}

func (m *AppendEntriesReq) String() string {
	return fmt.Sprintf("AppendEntries{term:%d leader:%d prev:%d/%d entries:%d commit:%d}",
		m.Term, m.LeaderId, m.PrevLogIndex, m.PrevLogTerm, len(m.Entries), m.LeaderCommit)
}

func (m *AppendEntriesResp) String() string {
	return fmt.Sprintf("AppendEntriesResp{term:%d success:%t from:%d match:%d}", m.Term, m.Success, m.From, m.MatchIndex)
}

// Envelope addresses a message from one member to another.
type Envelope struct {
	From int
	To   int
	Msg  Message
}

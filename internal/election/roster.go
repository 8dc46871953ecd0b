package election

import (
	"errors"
	"strings"
)

var (
	ErrCandidateNotFound = errors.New("election: candidate not found")
	ErrEmptyCandidateID  = errors.New("election: candidate id is empty")
)

// 文档注释：候选人名单
// 背景：保留输入顺序用于排名的最终并列裁决；按 ID 查找时重复 ID 解析为最后注册者（有意记录的行为，不做纠正）。
// 约束：名单整体替换时构建新实例；Add/Update/Remove 返回新名单，原实例不变，保证下游看到的一致快照。
type Roster struct {
	list  []Candidate
	index map[string]int
}

// NewRoster：按输入顺序构建
func NewRoster(cs []Candidate) *Roster {
	r := &Roster{list: make([]Candidate, len(cs)), index: make(map[string]int, len(cs))}
	copy(r.list, cs)
	for i, c := range r.list {
		r.index[c.ID] = i
	}
	return r
}

// Lookup：重复 ID 时返回最后注册的候选人
func (r *Roster) Lookup(id string) (Candidate, bool) {
	if r == nil {
		return Candidate{}, false
	}
	i, ok := r.index[id]
	if !ok {
		return Candidate{}, false
	}
	return r.list[i], true
}

// Has：ID 是否在名单中
func (r *Roster) Has(id string) bool {
	_, ok := r.Lookup(id)
	return ok
}

// Candidates：名单副本（输入顺序）
func (r *Roster) Candidates() []Candidate {
	if r == nil {
		return nil
	}
	out := make([]Candidate, len(r.list))
	copy(out, r.list)
	return out
}

func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.list)
}

// Add：追加候选人；空 ID 拒绝
func (r *Roster) Add(c Candidate) (*Roster, error) {
	if strings.TrimSpace(c.ID) == "" {
		return nil, ErrEmptyCandidateID
	}
	return NewRoster(append(r.Candidates(), c)), nil
}

// Update：替换最后注册的同 ID 候选人
func (r *Roster) Update(c Candidate) (*Roster, error) {
	i, ok := r.position(c.ID)
	if !ok {
		return nil, ErrCandidateNotFound
	}
	cs := r.Candidates()
	cs[i] = c
	return NewRoster(cs), nil
}

// Remove：删除该 ID 的全部条目
func (r *Roster) Remove(id string) (*Roster, error) {
	if _, ok := r.position(id); !ok {
		return nil, ErrCandidateNotFound
	}
	cs := r.Candidates()
	out := cs[:0]
	for _, c := range cs {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return NewRoster(out), nil
}

func (r *Roster) position(id string) (int, bool) {
	if r == nil {
		return 0, false
	}
	i, ok := r.index[id]
	return i, ok
}

package election

import (
	"math"
	"sort"
)

// 文档注释：多数规则
// 背景：默认美国选举人团 538 中 270；非美国数据集可覆盖总数与门槛。
// 约束：Threshold<=0 时按 floor(Total/2)+1 推导。
type MajorityRule struct {
	Total     float64 `json:"total"`
	Threshold float64 `json:"threshold"`
}

func DefaultMajorityRule() MajorityRule { return MajorityRule{Total: 538, Threshold: 270} }

// Effective：推导后的门槛
func (m MajorityRule) Effective() float64 {
	if m.Threshold > 0 {
		return m.Threshold
	}
	if m.Total > 0 {
		return math.Floor(m.Total/2) + 1
	}
	return 0
}

// CandidateTotal：单个候选人的汇总
type CandidateTotal struct {
	Candidate
	PopularVotes int64   `json:"popularVotes"`
	Weight       float64 `json:"electoralVotes"`
	Percentage   float64 `json:"percentage"`
	Rank         int     `json:"rank"`
}

// Aggregates：汇总快照
type Aggregates struct {
	PerCandidate      []CandidateTotal `json:"perCandidate"`
	TotalVotes        int64            `json:"totalVotes"`
	TotalWeight       float64          `json:"totalElectoralVotes"`
	Leader            *CandidateTotal  `json:"leader,omitempty"`
	MajorityThreshold float64          `json:"majorityThreshold"`
	MajorityTotal     float64          `json:"majorityTotal"`
	HasMajority       bool             `json:"hasMajority"`
}

// Lookup：按候选人 ID 取汇总
func (a Aggregates) Lookup(id string) (CandidateTotal, bool) {
	for _, c := range a.PerCandidate {
		if c.ID == id {
			return c, true
		}
	}
	return CandidateTotal{}, false
}

// 文档注释：计算汇总统计
// 背景：每个候选人累加全部记录（不仅是领先记录）的票数与权重；总票数随时重新计算。
// 约束：排名按权重降序、普选票降序、名单顺序（稳定排序），保证总序确定；总票数为 0 时占比全为 0。
//       名单中重复 ID 只产生一个条目：元数据取最后注册者，位置取首次出现处。
//       未知候选人的记录不计入总票数与总权重，各候选人票数之和恒等于 TotalVotes；累加在 MaxInt64 处饱和。
func ComputeAggregates(roster *Roster, records []ResultRecord, rule MajorityRule) Aggregates {
	out := Aggregates{MajorityThreshold: rule.Effective(), MajorityTotal: rule.Total, PerCandidate: []CandidateTotal{}}
	votes := make(map[string]int64)
	weights := make(map[string]float64)
	for _, rec := range records {
		if !roster.Has(rec.CandidateID) {
			continue
		}
		out.TotalVotes = AddVotes(out.TotalVotes, rec.Votes)
		votes[rec.CandidateID] = AddVotes(votes[rec.CandidateID], rec.Votes)
		weights[rec.CandidateID] += rec.Weight
	}
	cs := roster.Candidates()
	if len(cs) == 0 {
		return out
	}
	per := make([]CandidateTotal, 0, len(cs))
	seen := make(map[string]bool, len(cs))
	for _, c := range cs {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		last, _ := roster.Lookup(c.ID)
		ct := CandidateTotal{Candidate: last, PopularVotes: votes[c.ID], Weight: weights[c.ID]}
		if out.TotalVotes > 0 {
			ct.Percentage = float64(ct.PopularVotes) / float64(out.TotalVotes) * 100
		}
		per = append(per, ct)
	}
	sort.SliceStable(per, func(i, j int) bool {
		if per[i].Weight != per[j].Weight {
			return per[i].Weight > per[j].Weight
		}
		return per[i].PopularVotes > per[j].PopularVotes
	})
	for i := range per {
		per[i].Rank = i
		out.TotalWeight += per[i].Weight
	}
	out.PerCandidate = per
	leader := per[0]
	out.Leader = &leader
	out.HasMajority = out.MajorityThreshold > 0 && leader.Weight >= out.MajorityThreshold
	return out
}

// AddVotes：票数累加，溢出时饱和到 MaxInt64
func AddVotes(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

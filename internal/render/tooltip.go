package render

import (
	"choromap/internal/election"
	"choromap/internal/geo"
)

// Tooltip：悬停提示内容，由前端负责定位
type Tooltip struct {
	RegionID         string   `json:"regionId"`
	Name             string   `json:"name"`
	Weight           *float64 `json:"electoralVotes,omitempty"`
	HasData          bool     `json:"hasData"`
	CandidateID      string   `json:"candidateId,omitempty"`
	CandidateName    string   `json:"candidateName,omitempty"`
	CandidateColor   string   `json:"candidateColor,omitempty"`
	Party            string   `json:"party,omitempty"`
	Votes            int64    `json:"votes,omitempty"`
	Percentage       float64  `json:"percentage,omitempty"`
	UnknownCandidate bool     `json:"unknownCandidate,omitempty"`
}

// 文档注释：构建提示内容
// 背景：名称缺省回退到区域 ID；选举模式附带权重与领先者信息，占比为领先者在该区域的得票占比。
// 约束：地理模式只含名称与 ID；领先者不在名单中时 HasData 仍为 true，但无候选人名称与颜色。
func BuildTooltip(r *geo.Region, mode Mode, ix election.Index, roster *election.Roster) Tooltip {
	if r == nil {
		return Tooltip{}
	}
	t := Tooltip{RegionID: r.ID, Name: r.Name}
	if t.Name == "" {
		t.Name = r.ID
	}
	if mode != ModeElection {
		return t
	}
	t.Weight = r.Weight
	res, ok := ix.Lookup(r.ID)
	if !ok {
		return t
	}
	t.HasData = true
	t.CandidateID = res.CandidateID
	t.Votes = res.Votes
	t.Percentage = res.PercentageOfRegion
	t.UnknownCandidate = res.UnknownCandidate
	if c, ok := roster.Lookup(res.CandidateID); ok && !res.UnknownCandidate {
		t.CandidateName, t.CandidateColor, t.Party = c.Name, c.Color, c.Party
	}
	return t
}

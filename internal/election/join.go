package election

import "choromap/internal/warn"

// 文档注释：构建结果连接索引
// 背景：按区域分组全部记录，取最高票记录作为该区域的领先者；区域得票总和用于重新计算领先者占比。
// 约束：并列最高票时取输入顺序第一个（有意记录的裁决，不按候选人 ID 等“聪明”规则）；
//       未知候选人仍参与领先者计算（票数真实），仅标记 UnknownCandidate；
//       regionIDs 为 nil 时不校验区域，非 nil 时不在其中的区域仍入索引但标记 UnknownRegion。
// 返回：同输入必得相同结果；警告按记录首次出现的顺序输出。
func BuildIndex(regionIDs []string, roster *Roster, records []ResultRecord) (Index, []warn.Warning) {
	var known map[string]struct{}
	if regionIDs != nil {
		known = make(map[string]struct{}, len(regionIDs))
		for _, id := range regionIDs {
			known[id] = struct{}{}
		}
	}
	type group struct {
		leader int
		sum    int64
		tied   bool
	}
	groups := make(map[string]*group)
	var order []string
	for i, rec := range records {
		g, ok := groups[rec.RegionID]
		if !ok {
			groups[rec.RegionID] = &group{leader: i, sum: rec.Votes}
			order = append(order, rec.RegionID)
			continue
		}
		g.sum = AddVotes(g.sum, rec.Votes)
		lv := records[g.leader].Votes
		switch {
		case rec.Votes > lv:
			g.leader = i
			g.tied = false
		case rec.Votes == lv:
			g.tied = true
		}
	}
	ix := make(Index, len(groups))
	var ws []warn.Warning
	for _, rid := range order {
		g := groups[rid]
		lead := records[g.leader]
		res := ResolvedResult{
			RegionID:           rid,
			CandidateID:        lead.CandidateID,
			Votes:              lead.Votes,
			RegionVotes:        g.sum,
			PercentageOfRegion: percentOf(lead.Votes, g.sum),
			WeightContribution: lead.Weight,
			Tied:               g.tied,
		}
		if !roster.Has(lead.CandidateID) {
			res.UnknownCandidate = true
			ws = append(ws, warn.UnknownCandidate(rid, lead.CandidateID))
		}
		if known != nil {
			if _, ok := known[rid]; !ok {
				res.UnknownRegion = true
				ws = append(ws, warn.UnknownRegion(rid, lead.CandidateID))
			}
		}
		if g.tied {
			ws = append(ws, warn.TiedLeader(rid, lead.CandidateID, lead.Votes))
		}
		ix[rid] = res
	}
	return ix, ws
}

// ReferenceWarnings：非领先记录中的未知候选人同样需要提示
func ReferenceWarnings(roster *Roster, records []ResultRecord, ix Index) []warn.Warning {
	var ws []warn.Warning
	seen := map[[2]string]bool{}
	for _, rec := range records {
		if roster.Has(rec.CandidateID) {
			continue
		}
		if r, ok := ix[rec.RegionID]; ok && r.CandidateID == rec.CandidateID {
			continue
		}
		k := [2]string{rec.RegionID, rec.CandidateID}
		if seen[k] {
			continue
		}
		seen[k] = true
		ws = append(ws, warn.UnknownCandidate(rec.RegionID, rec.CandidateID))
	}
	return ws
}

func percentOf(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

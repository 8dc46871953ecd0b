// 包 election：结果连接索引与汇总统计；输入为已规范化的候选人名单与结果记录
package election

// Candidate：候选人（或政党）
type Candidate struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Party string `json:"party"`
	Color string `json:"color"`
}

// 文档注释：结果记录
// 背景：一条记录表示某候选人在某区域的得票；Weight 为该区域授予的权重（如选举人票），可为 0。
// 约束：Votes 非负；Percentage 来自输入仅供参考，汇总时重新计算。
type ResultRecord struct {
	RegionID    string   `json:"regionId"`
	CandidateID string   `json:"candidateId"`
	Votes       int64    `json:"votes"`
	Weight      float64  `json:"electoralVotes,omitempty"`
	Percentage  *float64 `json:"percentage,omitempty"`
}

// 文档注释：区域的连接结果
// 背景：同一区域多条记录时取最高票记录；UnknownCandidate 表示候选人不在名单中，渲染层据此回退中性色。
type ResolvedResult struct {
	RegionID           string  `json:"regionId"`
	CandidateID        string  `json:"candidateId"`
	Votes              int64   `json:"votes"`
	RegionVotes        int64   `json:"regionVotes"`
	PercentageOfRegion float64 `json:"percentage"`
	WeightContribution float64 `json:"electoralVotes"`
	UnknownCandidate   bool    `json:"unknownCandidate,omitempty"`
	UnknownRegion      bool    `json:"unknownRegion,omitempty"`
	Tied               bool    `json:"tied,omitempty"`
}

// Index：区域 ID → 连接结果；缺失表示“无数据”，与“零票”不同
type Index map[string]ResolvedResult

// Lookup：按区域查找
func (ix Index) Lookup(regionID string) (ResolvedResult, bool) {
	r, ok := ix[regionID]
	return r, ok
}

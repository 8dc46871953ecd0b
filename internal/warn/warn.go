// 包 warn：非致命问题的统一载体；导入、连接与渲染阶段共享，便于前端集中展示
package warn

import "fmt"

// Kind：警告类别
type Kind string

const (
	// JoinAmbiguity：区域 ID 重复，或同一区域多个记录并列最高票
	JoinAmbiguity Kind = "join_ambiguity"
	// UnknownReference：结果记录引用了当前名单/地理中不存在的候选人或区域
	UnknownReference Kind = "unknown_reference"
)

// 文档注释：单条警告
// 约束：RegionID/CandidateID 按类别可为空；Detail 为面向用户的短句。
type Warning struct {
	Kind        Kind   `json:"kind"`
	RegionID    string `json:"regionId,omitempty"`
	CandidateID string `json:"candidateId,omitempty"`
	Index       int    `json:"index,omitempty"`
	Detail      string `json:"detail"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Detail)
}

// DuplicateRegion：地理数据中第 index 个要素的 ID 与前面重复，已按先到先得丢弃
func DuplicateRegion(id string, index int) Warning {
	return Warning{Kind: JoinAmbiguity, RegionID: id, Index: index, Detail: fmt.Sprintf("duplicate region id %q at feature %d dropped", id, index)}
}

// TiedLeader：区域内多个记录并列最高票，取输入顺序第一个
func TiedLeader(regionID, picked string, votes int64) Warning {
	return Warning{Kind: JoinAmbiguity, RegionID: regionID, CandidateID: picked, Detail: fmt.Sprintf("region %q has tied leaders at %d votes, first record wins", regionID, votes)}
}

func UnknownCandidate(regionID, candidateID string) Warning {
	return Warning{Kind: UnknownReference, RegionID: regionID, CandidateID: candidateID, Detail: fmt.Sprintf("candidate %q referenced by region %q is not in the roster", candidateID, regionID)}
}

func UnknownRegion(regionID, candidateID string) Warning {
	return Warning{Kind: UnknownReference, RegionID: regionID, CandidateID: candidateID, Detail: fmt.Sprintf("region %q is not in the current geography", regionID)}
}

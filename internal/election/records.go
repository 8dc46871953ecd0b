package election

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// 文档注释：结果数据边界规范化
// 背景：导入端字段风格不一（regionId / region_id / region，candidateId / candidate_id / partyId 等）；在此统一为 ResultRecord，之后不再出现歧义形状。
// 约束：票数允许数字或数字字符串；负数、非整数、缺少区域或候选人 ID 视为非法输入，整体拒绝。
var (
	regionKeys     = []string{"regionId", "region_id", "region", "regionID"}
	candidateKeys  = []string{"candidateId", "candidate_id", "candidate", "partyId", "party_id", "candidateID"}
	voteKeys       = []string{"votes", "vote_count", "voteCount"}
	percentageKeys = []string{"percentage", "percent", "pct"}
	weightKeys     = []string{"electoralVotes", "electoral_votes", "weight", "seats"}
)

// MaxVotes：单条记录票数上限（2^53，float64 可精确表示的最大整数）
const MaxVotes = 1 << 53

// 调色板：导入时缺少颜色的候选人按顺序取色
var palette = []string{"#1976d2", "#d32f2f", "#388e3c", "#f57c00", "#7b1fa2", "#00796b", "#c2185b", "#5d4037", "#455a64", "#fbc02d"}

// InputError：导入数据不合法；Index 为出错记录下标（-1 表示整体结构问题）
type InputError struct {
	Index  int
	Reason string
}

func (e *InputError) Error() string {
	if e.Index < 0 {
		return "election: invalid input: " + e.Reason
	}
	return fmt.Sprintf("election: invalid record %d: %s", e.Index, e.Reason)
}

// Document：组合导入文档（候选人/政党 + 结果）
type Document struct {
	Candidates []Candidate
	Results    []ResultRecord
}

// DecodeRecords：接受记录数组或 {"results": [...]}
func DecodeRecords(data []byte) ([]ResultRecord, error) {
	items, err := decodeList(data, "results")
	if err != nil {
		return nil, err
	}
	return normalizeRecords(items)
}

// DecodeCandidates：接受数组或 {"candidates": [...]} / {"parties": [...]}
func DecodeCandidates(data []byte) ([]Candidate, error) {
	items, err := decodeList(data, "candidates", "parties")
	if err != nil {
		return nil, err
	}
	return normalizeCandidates(items)
}

// DecodeElection：组合文档，两部分均可缺省
func DecodeElection(data []byte) (Document, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return Document{}, &InputError{Index: -1, Reason: err.Error()}
	}
	var doc Document
	for _, k := range []string{"candidates", "parties"} {
		if raw, ok := obj[k]; ok {
			var items []map[string]any
			if err := json.Unmarshal(raw, &items); err != nil {
				return Document{}, &InputError{Index: -1, Reason: k + ": " + err.Error()}
			}
			cs, err := normalizeCandidates(items)
			if err != nil {
				return Document{}, err
			}
			doc.Candidates = cs
			break
		}
	}
	if raw, ok := obj["results"]; ok {
		var items []map[string]any
		if err := json.Unmarshal(raw, &items); err != nil {
			return Document{}, &InputError{Index: -1, Reason: "results: " + err.Error()}
		}
		rs, err := normalizeRecords(items)
		if err != nil {
			return Document{}, err
		}
		doc.Results = rs
	}
	return doc, nil
}

func decodeList(data []byte, keys ...string) ([]map[string]any, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var items []map[string]any
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, &InputError{Index: -1, Reason: err.Error()}
		}
		return items, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, &InputError{Index: -1, Reason: err.Error()}
	}
	for _, k := range keys {
		if raw, ok := obj[k]; ok {
			var items []map[string]any
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, &InputError{Index: -1, Reason: k + ": " + err.Error()}
			}
			return items, nil
		}
	}
	return nil, &InputError{Index: -1, Reason: "expected an array or an object with " + strings.Join(keys, "/")}
}

func normalizeRecords(items []map[string]any) ([]ResultRecord, error) {
	out := make([]ResultRecord, 0, len(items))
	for i, it := range items {
		rec, err := normalizeRecord(it)
		if err != nil {
			return nil, &InputError{Index: i, Reason: err.Error()}
		}
		out = append(out, rec)
	}
	return out, nil
}

func normalizeRecord(it map[string]any) (ResultRecord, error) {
	var rec ResultRecord
	rec.RegionID = pickString(it, regionKeys)
	if rec.RegionID == "" {
		return rec, errors.New("missing region id")
	}
	rec.CandidateID = pickString(it, candidateKeys)
	if rec.CandidateID == "" {
		return rec, errors.New("missing candidate id")
	}
	v, ok, err := pickNumber(it, voteKeys)
	if err != nil {
		return rec, fmt.Errorf("votes: %w", err)
	}
	if ok {
		if v < 0 || math.IsInf(v, 0) || v != math.Trunc(v) {
			return rec, fmt.Errorf("votes must be a non-negative integer, got %v", v)
		}
		if v > MaxVotes {
			return rec, fmt.Errorf("votes exceed %d, got %v", int64(MaxVotes), v)
		}
		rec.Votes = int64(v)
	}
	if w, ok, err := pickNumber(it, weightKeys); err != nil {
		return rec, fmt.Errorf("weight: %w", err)
	} else if ok {
		if w < 0 || math.IsInf(w, 0) || math.IsNaN(w) {
			return rec, fmt.Errorf("weight must be non-negative, got %v", w)
		}
		rec.Weight = w
	}
	if p, ok, err := pickNumber(it, percentageKeys); err != nil {
		return rec, fmt.Errorf("percentage: %w", err)
	} else if ok {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return rec, fmt.Errorf("percentage must be finite, got %v", p)
		}
		rec.Percentage = &p
	}
	return rec, nil
}

func normalizeCandidates(items []map[string]any) ([]Candidate, error) {
	out := make([]Candidate, 0, len(items))
	for i, it := range items {
		c := Candidate{
			ID:    pickString(it, []string{"id", "candidateId", "candidate_id", "partyId"}),
			Name:  pickString(it, []string{"name", "displayName"}),
			Party: pickString(it, []string{"party", "partyName", "party_name"}),
			Color: pickString(it, []string{"color", "colour"}),
		}
		if c.Name == "" {
			return nil, &InputError{Index: i, Reason: "missing candidate name"}
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.Color == "" {
			c.Color = palette[i%len(palette)]
		}
		out = append(out, c)
	}
	return out, nil
}

func pickString(it map[string]any, keys []string) string {
	for _, k := range keys {
		switch x := it[k].(type) {
		case string:
			if s := strings.TrimSpace(x); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64)
		}
	}
	return ""
}

func pickNumber(it map[string]any, keys []string) (float64, bool, error) {
	for _, k := range keys {
		v, present := it[k]
		if !present || v == nil {
			continue
		}
		switch x := v.(type) {
		case float64:
			return x, true, nil
		case string:
			s := strings.ReplaceAll(strings.TrimSpace(x), ",", "")
			if s == "" {
				continue
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return 0, false, err
			}
			return f, true, nil
		default:
			return 0, false, fmt.Errorf("unsupported type %T", v)
		}
	}
	return 0, false, nil
}

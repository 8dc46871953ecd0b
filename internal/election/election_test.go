package election

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"choromap/internal/warn"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenario() (*Roster, []ResultRecord) {
	roster := NewRoster([]Candidate{{ID: "1", Name: "X", Color: "#f00"}, {ID: "2", Name: "Y", Color: "#00f"}})
	records := []ResultRecord{
		{RegionID: "A", CandidateID: "1", Votes: 100},
		{RegionID: "B", CandidateID: "2", Votes: 50},
		{RegionID: "B", CandidateID: "1", Votes: 80},
	}
	return roster, records
}

func TestScenarioJoinAndAggregate(t *testing.T) {
	roster, records := scenario()
	ix, ws := BuildIndex([]string{"A", "B"}, roster, records)
	assert.Empty(t, ws)
	require.Len(t, ix, 2)

	b, ok := ix.Lookup("B")
	require.True(t, ok)
	assert.Equal(t, "1", b.CandidateID)
	assert.Equal(t, int64(80), b.Votes)
	assert.Equal(t, int64(130), b.RegionVotes)
	assert.InDelta(t, 61.538, b.PercentageOfRegion, 1e-3)

	agg := ComputeAggregates(roster, records, DefaultMajorityRule())
	assert.Equal(t, int64(230), agg.TotalVotes)
	one, ok := agg.Lookup("1")
	require.True(t, ok)
	assert.Equal(t, int64(180), one.PopularVotes)
	require.NotNil(t, agg.Leader)
	assert.Equal(t, "1", agg.Leader.ID)
}

func TestBuildIndexAbsentRegionMeansNoData(t *testing.T) {
	roster, records := scenario()
	ix, _ := BuildIndex([]string{"A", "B", "C"}, roster, records)
	_, ok := ix.Lookup("C")
	assert.False(t, ok)
}

func TestBuildIndexTieBreakFirstRecordWins(t *testing.T) {
	roster := NewRoster([]Candidate{{ID: "1"}, {ID: "2"}})
	records := []ResultRecord{
		{RegionID: "A", CandidateID: "2", Votes: 40},
		{RegionID: "A", CandidateID: "1", Votes: 40},
	}
	ix, ws := BuildIndex(nil, roster, records)
	assert.Equal(t, "2", ix["A"].CandidateID)
	assert.True(t, ix["A"].Tied)
	require.Len(t, ws, 1)
	assert.Equal(t, warn.JoinAmbiguity, ws[0].Kind)
}

func TestBuildIndexTieClearedByHigherRecord(t *testing.T) {
	roster := NewRoster([]Candidate{{ID: "1"}, {ID: "2"}, {ID: "3"}})
	records := []ResultRecord{
		{RegionID: "A", CandidateID: "1", Votes: 10},
		{RegionID: "A", CandidateID: "2", Votes: 10},
		{RegionID: "A", CandidateID: "3", Votes: 11},
	}
	ix, ws := BuildIndex(nil, roster, records)
	assert.Equal(t, "3", ix["A"].CandidateID)
	assert.False(t, ix["A"].Tied)
	assert.Empty(t, ws)
}

func TestBuildIndexUnknownReferences(t *testing.T) {
	roster := NewRoster([]Candidate{{ID: "1"}})
	records := []ResultRecord{
		{RegionID: "A", CandidateID: "ghost", Votes: 90},
		{RegionID: "A", CandidateID: "1", Votes: 10},
		{RegionID: "Z", CandidateID: "1", Votes: 5},
	}
	ix, ws := BuildIndex([]string{"A"}, roster, records)
	a := ix["A"]
	assert.Equal(t, "ghost", a.CandidateID, "unknown candidates still lead on real votes")
	assert.True(t, a.UnknownCandidate)
	z := ix["Z"]
	assert.True(t, z.UnknownRegion)
	kinds := map[warn.Kind]int{}
	for _, w := range ws {
		kinds[w.Kind]++
	}
	assert.Equal(t, 2, kinds[warn.UnknownReference])
}

func TestReferenceWarningsCoverNonLeaders(t *testing.T) {
	roster := NewRoster([]Candidate{{ID: "1"}})
	records := []ResultRecord{
		{RegionID: "A", CandidateID: "1", Votes: 90},
		{RegionID: "A", CandidateID: "ghost", Votes: 10},
		{RegionID: "A", CandidateID: "ghost", Votes: 1},
	}
	ix, _ := BuildIndex(nil, roster, records)
	ws := ReferenceWarnings(roster, records, ix)
	require.Len(t, ws, 1)
	assert.Equal(t, "ghost", ws[0].CandidateID)
}

func TestBuildIndexIsIdempotent(t *testing.T) {
	roster, records := scenario()
	a, wa := BuildIndex([]string{"A", "B"}, roster, records)
	b, wb := BuildIndex([]string{"A", "B"}, roster, records)
	assert.Equal(t, a, b)
	assert.Equal(t, wa, wb)
}

func TestAggregatePercentages(t *testing.T) {
	roster := NewRoster([]Candidate{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	records := []ResultRecord{
		{RegionID: "1", CandidateID: "a", Votes: 1},
		{RegionID: "1", CandidateID: "b", Votes: 1},
		{RegionID: "2", CandidateID: "c", Votes: 1},
	}
	agg := ComputeAggregates(roster, records, DefaultMajorityRule())
	var sumVotes int64
	var sumPct float64
	for _, c := range agg.PerCandidate {
		sumVotes += c.PopularVotes
		sumPct += c.Percentage
	}
	assert.Equal(t, agg.TotalVotes, sumVotes)
	assert.InDelta(t, 100, sumPct, 1e-9)
}

func TestAggregateZeroVotes(t *testing.T) {
	roster := NewRoster([]Candidate{{ID: "a"}, {ID: "b"}})
	records := []ResultRecord{{RegionID: "1", CandidateID: "a", Votes: 0, Weight: 3}}
	agg := ComputeAggregates(roster, records, DefaultMajorityRule())
	assert.Equal(t, int64(0), agg.TotalVotes)
	for _, c := range agg.PerCandidate {
		assert.Equal(t, 0.0, c.Percentage)
	}
	assert.Equal(t, 3.0, agg.TotalWeight)
}

func TestAggregateNoCandidates(t *testing.T) {
	agg := ComputeAggregates(NewRoster(nil), []ResultRecord{{RegionID: "1", CandidateID: "a", Votes: 7}}, DefaultMajorityRule())
	assert.Empty(t, agg.PerCandidate)
	assert.Nil(t, agg.Leader)
	assert.False(t, agg.HasMajority)
	assert.Equal(t, 0.0, agg.TotalWeight)
	assert.Equal(t, int64(0), agg.TotalVotes, "votes of unknown candidates are not attributed")
}

func sumTotals(agg Aggregates) (int64, float64, float64) {
	var votes int64
	var weight, pct float64
	for _, c := range agg.PerCandidate {
		votes += c.PopularVotes
		weight += c.Weight
		pct += c.Percentage
	}
	return votes, weight, pct
}

func TestAggregateDuplicateRosterIDCountedOnce(t *testing.T) {
	roster := NewRoster([]Candidate{{ID: "1", Name: "X"}, {ID: "1", Name: "X2"}, {ID: "2", Name: "Y"}})
	records := []ResultRecord{
		{RegionID: "A", CandidateID: "1", Votes: 100, Weight: 3},
		{RegionID: "B", CandidateID: "2", Votes: 50, Weight: 1},
	}
	agg := ComputeAggregates(roster, records, DefaultMajorityRule())
	require.Len(t, agg.PerCandidate, 2)
	votes, weight, pct := sumTotals(agg)
	assert.Equal(t, agg.TotalVotes, votes)
	assert.Equal(t, int64(150), agg.TotalVotes)
	assert.Equal(t, agg.TotalWeight, weight)
	assert.Equal(t, 4.0, weight)
	assert.InDelta(t, 100, pct, 1e-9)

	one, ok := agg.Lookup("1")
	require.True(t, ok)
	assert.Equal(t, "X2", one.Name, "metadata of the last registration")
	assert.Equal(t, int64(100), one.PopularVotes)
}

func TestAggregateExcludesUnknownCandidates(t *testing.T) {
	roster := NewRoster([]Candidate{{ID: "1"}})
	records := []ResultRecord{
		{RegionID: "A", CandidateID: "1", Votes: 100, Weight: 2},
		{RegionID: "B", CandidateID: "ghost", Votes: 300, Weight: 5},
	}
	agg := ComputeAggregates(roster, records, DefaultMajorityRule())
	votes, weight, pct := sumTotals(agg)
	assert.Equal(t, int64(100), agg.TotalVotes)
	assert.Equal(t, agg.TotalVotes, votes)
	assert.Equal(t, 2.0, weight)
	assert.InDelta(t, 100, pct, 1e-9)
}

func TestAggregateVotesSaturate(t *testing.T) {
	roster := NewRoster([]Candidate{{ID: "1"}})
	records := []ResultRecord{
		{RegionID: "A", CandidateID: "1", Votes: 9e18},
		{RegionID: "B", CandidateID: "1", Votes: 9e18},
	}
	agg := ComputeAggregates(roster, records, DefaultMajorityRule())
	assert.Equal(t, int64(math.MaxInt64), agg.TotalVotes)
	assert.Equal(t, int64(math.MaxInt64), agg.PerCandidate[0].PopularVotes)

	ix, _ := BuildIndex(nil, roster, append(records, ResultRecord{RegionID: "A", CandidateID: "1", Votes: 9e18}))
	assert.Equal(t, int64(math.MaxInt64), ix["A"].RegionVotes)
	assert.Equal(t, int64(5), AddVotes(2, 3))
}

func TestAggregateRankingAndMajority(t *testing.T) {
	roster := NewRoster([]Candidate{{ID: "low"}, {ID: "tieA"}, {ID: "tieB"}, {ID: "top"}})
	records := []ResultRecord{
		{RegionID: "1", CandidateID: "top", Votes: 10, Weight: 270},
		{RegionID: "2", CandidateID: "tieA", Votes: 5, Weight: 100},
		{RegionID: "3", CandidateID: "tieB", Votes: 5, Weight: 100},
		{RegionID: "4", CandidateID: "low", Votes: 900, Weight: 68},
	}
	agg := ComputeAggregates(roster, records, DefaultMajorityRule())
	ids := make([]string, 0, 4)
	for _, c := range agg.PerCandidate {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"top", "tieA", "tieB", "low"}, ids)
	assert.True(t, agg.HasMajority)
	assert.Equal(t, 538.0, agg.TotalWeight)

	agg = ComputeAggregates(roster, records, MajorityRule{Total: 650})
	assert.Equal(t, 326.0, agg.MajorityThreshold)
	assert.False(t, agg.HasMajority)
}

func TestAggregateRankingStableUnderShuffle(t *testing.T) {
	roster := NewRoster([]Candidate{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}})
	var records []ResultRecord
	for i := 0; i < 40; i++ {
		records = append(records, ResultRecord{RegionID: string(rune('A' + i%8)), CandidateID: []string{"a", "b", "c", "d"}[i%4], Votes: int64(i % 3), Weight: float64(i % 2)})
	}
	want := ComputeAggregates(roster, records, DefaultMajorityRule())
	rng := rand.New(rand.NewSource(7))
	for n := 0; n < 10; n++ {
		shuffled := append([]ResultRecord(nil), records...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := ComputeAggregates(roster, shuffled, DefaultMajorityRule())
		assert.Equal(t, want.PerCandidate, got.PerCandidate)
	}
}

func TestRosterDuplicateLastWins(t *testing.T) {
	r := NewRoster([]Candidate{{ID: "1", Name: "first"}, {ID: "1", Name: "second"}})
	c, ok := r.Lookup("1")
	require.True(t, ok)
	assert.Equal(t, "second", c.Name)
	assert.Equal(t, 2, r.Len())
}

func TestRosterMutationsReturnNewRoster(t *testing.T) {
	r := NewRoster([]Candidate{{ID: "1", Name: "one"}})
	r2, err := r.Add(Candidate{ID: "2", Name: "two"})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 2, r2.Len())

	r3, err := r2.Update(Candidate{ID: "1", Name: "uno"})
	require.NoError(t, err)
	c, _ := r3.Lookup("1")
	assert.Equal(t, "uno", c.Name)

	r4, err := r3.Remove("2")
	require.NoError(t, err)
	assert.False(t, r4.Has("2"))

	_, err = r4.Remove("nope")
	assert.True(t, errors.Is(err, ErrCandidateNotFound))
	_, err = r4.Add(Candidate{ID: " "})
	assert.ErrorIs(t, err, ErrEmptyCandidateID)
}

func TestDecodeRecordsAliases(t *testing.T) {
	raw := `[
	  {"regionId":"A","candidateId":"1","votes":100,"electoralVotes":3},
	  {"region_id":"B","candidate_id":"2","votes":"1,250","percentage":"55.5"},
	  {"region":"C","partyId":7,"votes":0}
	]`
	recs, err := DecodeRecords([]byte(raw))
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, ResultRecord{RegionID: "A", CandidateID: "1", Votes: 100, Weight: 3}, recs[0])
	assert.Equal(t, int64(1250), recs[1].Votes)
	require.NotNil(t, recs[1].Percentage)
	assert.Equal(t, 55.5, *recs[1].Percentage)
	assert.Equal(t, "7", recs[2].CandidateID)

	wrapped, err := DecodeRecords([]byte(`{"results":` + raw + `}`))
	require.NoError(t, err)
	assert.Equal(t, recs, wrapped)
}

func TestDecodeRecordsRejectsBadInput(t *testing.T) {
	cases := []string{
		`[{"candidateId":"1","votes":1}]`,
		`[{"regionId":"A","votes":1}]`,
		`[{"regionId":"A","candidateId":"1","votes":-1}]`,
		`[{"regionId":"A","candidateId":"1","votes":1.5}]`,
		`[{"regionId":"A","candidateId":"1","votes":"many"}]`,
		`[{"regionId":"A","candidateId":"1","votes":1e30}]`,
		`[{"regionId":"A","candidateId":"1","votes":"1e16"}]`,
		`[{"regionId":"A","candidateId":"1","votes":1,"percentage":"NaN"}]`,
		`[{"regionId":"A","candidateId":"1","votes":1,"percentage":"-Inf"}]`,
		`{"rows":[]}`,
	}
	for _, raw := range cases {
		_, err := DecodeRecords([]byte(raw))
		var ie *InputError
		assert.True(t, errors.As(err, &ie), raw)
	}
}

func TestDecodeElectionDocument(t *testing.T) {
	raw := `{"parties":[{"id":"lab","name":"Labour","color":"#e4003b"},{"name":"Independent"}],
	  "results":[{"regionId":"E1","candidateId":"lab","votes":10}]}`
	doc, err := DecodeElection([]byte(raw))
	require.NoError(t, err)
	require.Len(t, doc.Candidates, 2)
	assert.Equal(t, "lab", doc.Candidates[0].ID)
	assert.NotEmpty(t, doc.Candidates[1].ID, "missing ids are generated")
	assert.Equal(t, palette[1], doc.Candidates[1].Color)
	require.Len(t, doc.Results, 1)
}

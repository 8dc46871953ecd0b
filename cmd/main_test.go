package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"choromap/internal/catalog"
	"choromap/internal/election"
	"choromap/internal/projection"
	"choromap/internal/render"
	"choromap/internal/workspace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("DEFAULT_PROJECTION", "EqualEarth")
	t.Setenv("DEFAULT_MODE", "geography")
	t.Setenv("VIEWPORT_WIDTH", "1200")
	t.Setenv("FIT_PADDING", "20")
	t.Setenv("MAJORITY_TOTAL", "650")
	t.Setenv("MAJORITY_THRESHOLD", "0")
	s, err := settingsFromEnv()
	require.NoError(t, err)
	assert.Equal(t, projection.EqualEarth, s.Projection)
	assert.Equal(t, render.ModeGeography, s.Mode)
	assert.Equal(t, 1200.0, s.Viewport.Width)
	assert.Equal(t, 600.0, s.Viewport.Height)
	assert.Equal(t, 20.0, s.Padding)
	assert.Equal(t, 326.0, s.Majority.Effective())
}

func TestSettingsFromEnvRejectsUnknownProjection(t *testing.T) {
	t.Setenv("DEFAULT_PROJECTION", "gnomonic")
	_, err := settingsFromEnv()
	var pe *projection.UnsupportedProjectionError
	assert.ErrorAs(t, err, &pe)
}

const plainsSquare = `{"type":"Feature","properties":{"id":"KS","name":"Kansas"},
  "geometry":{"type":"Polygon","coordinates":[[[-102,37],[-94.6,37],[-94.6,40],[-102,40],[-102,37]]]}}`

func TestPreloadMapAppliesMapSwitch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "usa-states.geojson"), []byte(plainsSquare), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "europe.geojson"), []byte(plainsSquare), 0o644))
	cat := catalog.New(dir, nil, 0)

	s := workspace.DefaultSettings()
	s.Projection = projection.EqualEarth
	ws, err := workspace.New(s)
	require.NoError(t, err)
	recs := []election.ResultRecord{{RegionID: "KS", CandidateID: "1", Votes: 10}}
	require.NoError(t, ws.ReplaceElection([]election.Candidate{{ID: "1", Name: "X"}}, recs))

	ctx := context.Background()
	require.NoError(t, preloadMap(ctx, ws, cat, "usa-states", ""))
	assert.Equal(t, projection.AlbersUSA, ws.Settings().Projection)
	assert.Equal(t, render.ModeGeography, ws.Settings().Mode)
	assert.Len(t, ws.Records(), 1, "usa-states keeps results")

	require.NoError(t, preloadMap(ctx, ws, cat, "europe", render.ModeElection))
	assert.Equal(t, projection.Mercator, ws.Settings().Projection)
	assert.Equal(t, render.ModeElection, ws.Settings().Mode)
	assert.Empty(t, ws.Records())

	assert.ErrorIs(t, preloadMap(ctx, ws, cat, "atlantis", ""), catalog.ErrUnknownMap)
}

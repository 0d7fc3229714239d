package catalog

import (
	"encoding/json"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const genshinJSON = `{
  "id": "genshin",
  "version": 2,
  "name_key": "games.genshin",
  "order": 1,
  "weekly_reset_day": "monday",
  "regions": [
    {"id": "eu", "reset_time": "04:00:00"},
    {"id": "na", "reset_time": "04:00:00"}
  ],
  "currencies": [{"id": "primogem", "tracked": true, "primary": true}],
  "gacha": [{"id": "character", "pull_cost": [{"currency": "primogem", "amount": 160}], "rate": 0.006, "fifty_fifty_system": true}],
  "daily": [{"id": "commissions", "rewards": [{"currency": "primogem", "amount": 60}], "steps": 4}],
  "periodic": [
    {"id": "abyss", "reset_day": "16", "reset_period": 14, "rewards": [{"currency": "primogem", "amount": 600}]},
    {
      "id": "theater", "reset_day": "1", "reset_period": 30,
      "ranked_stages": {
        "reset_day": "1",
        "reset_period": 14,
        "progress_labels": ["act 3", "act 6"],
        "sum_rewards": true,
        "stages": [
          {"id": "normal", "rewards": [{"step": 3, "currencies": [{"currency": "primogem", "amount": 60}]}]},
          {"id": "hard", "rewards": [{"step": 6, "currencies": [{"currency": "primogem", "amount": 120}]}]}
        ]
      }
    }
  ]
}`

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"genshin/data.json":     {Data: []byte(genshinJSON)},
		"starrail/data.json":    {Data: []byte(`{"id": "starrail", "weekly_reset_day": "Monday"}`)},
		"alpha/data.json":       {Data: []byte(`{"id": "alpha"}`)},
		"zeta/data.json":        {Data: []byte(`{"id": "zeta", "order": 100}`)},
		"empty/images/icon.png": {Data: []byte("png")},
		"README.md":             {Data: []byte("not a game")},
	}

	c, err := Load(fsys, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, c.Len())
	// order 1 first; the rest default to 100 and fall back to id order
	assert.Equal(t, []string{"genshin", "alpha", "starrail", "zeta"}, c.IDs())

	g, ok := c.Get("genshin")
	require.True(t, ok)
	assert.Equal(t, "genshin", g.Dir)
	assert.Equal(t, "genshin/images/icon.png", g.IconPath())
	assert.Equal(t, "genshin/i18n", g.LocaleDir())
	require.Len(t, g.Periodic, 2)
	assert.Equal(t, "abyss", g.Periodic[0].ID)
	assert.Equal(t, 14, g.Periodic[0].ResetPeriod)
	assert.Equal(t, int64(600), g.Periodic[0].Rewards[0].Amount)
	assert.True(t, g.Gacha[0].FiftyFifty)

	r, ok := g.Region("na")
	require.True(t, ok)
	assert.Equal(t, "04:00:00", r.ResetTime)

	_, ok = c.Get("empty")
	assert.False(t, ok)
}

func TestLoad_InvalidJSON(t *testing.T) {
	fsys := fstest.MapFS{"broken/data.json": {Data: []byte(`{"id":`)}}

	_, err := Load(fsys, nil)
	assert.Error(t, err)
}

func TestLoad_DuplicateID(t *testing.T) {
	fsys := fstest.MapFS{
		"a/data.json": {Data: []byte(`{"id": "same"}`)},
		"b/data.json": {Data: []byte(`{"id": "same"}`)},
	}

	_, err := Load(fsys, nil)
	assert.ErrorIs(t, err, ErrDuplicateGame)
}

func TestLoadDir_Missing(t *testing.T) {
	_, err := LoadDir(t.TempDir()+"/nope", nil)
	assert.Error(t, err)
}

func TestGame_ResetWeekday(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Weekday
		wantErr bool
	}{
		{"", time.Monday, false},
		{"monday", time.Monday, false},
		{"WEDNESDAY", time.Wednesday, false},
		{"Sunday", time.Sunday, false},
		{"someday", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			g := &Game{ID: "x", WeeklyResetDay: tt.in}
			got, err := g.ResetWeekday()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidReset)
				assert.Error(t, g.Validate())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_Validates(t *testing.T) {
	_, err := New(&Game{})
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = New(&Game{ID: "x", Regions: []Region{{ResetTime: "04:00:00"}}})
	assert.Error(t, err)
}

func TestLoad_RankedStages(t *testing.T) {
	c, err := Load(fstest.MapFS{"genshin/data.json": {Data: []byte(genshinJSON)}}, nil)
	require.NoError(t, err)
	g, ok := c.Get("genshin")
	require.True(t, ok)

	ranked := g.Periodic[1].RankedStages
	require.NotNil(t, ranked)
	assert.Equal(t, 14, ranked.ResetPeriod)
	assert.True(t, ranked.SumRewards)
	assert.Equal(t, []string{"act 3", "act 6"}, ranked.ProgressLabels)
	require.Len(t, ranked.Stages, 2)
	assert.Equal(t, "hard", ranked.Stages[1].ID)
	assert.Equal(t, 6, ranked.Stages[1].Rewards[0].Step)
	assert.Equal(t, int64(120), ranked.Stages[1].Rewards[0].Currencies[0].Amount)
	assert.Nil(t, g.Periodic[0].RankedStages)

	// written back, the ranked stages survive
	data, err := json.Marshal(g)
	require.NoError(t, err)
	var again Game
	require.NoError(t, json.Unmarshal(data, &again))
	assert.Equal(t, g.Periodic[1].RankedStages, again.Periodic[1].RankedStages)
}

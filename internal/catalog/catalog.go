package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/questlog/pkg/types"
)

// DefaultOrder is the sort order of a game whose data.json has none
const DefaultOrder = 100

// DataFile is the game definition file expected in every game directory
const DataFile = "data.json"

var (
	ErrMissingID     = errors.New("game id is required")
	ErrDuplicateGame = errors.New("duplicate game id")
	ErrInvalidReset  = errors.New("invalid weekly reset day")
)

// Game is one game definition loaded from data.json
type Game struct {
	ID             string         `json:"id"`
	Version        int            `json:"version"`
	NameKey        string         `json:"name_key"`
	Order          *int           `json:"order,omitempty"`
	Regions        []Region       `json:"regions"`
	WeeklyResetDay string         `json:"weekly_reset_day"`
	AccentColor    string         `json:"accent_color,omitempty"`
	Currencies     []Currency     `json:"currencies"`
	Gacha          []GachaBanner  `json:"gacha,omitempty"`
	Daily          []Task         `json:"daily,omitempty"`
	Weekly         []Task         `json:"weekly,omitempty"`
	Periodic       []PeriodicTask `json:"periodic,omitempty"`

	// Dir is the game's directory relative to the catalog root
	Dir string `json:"-"`
}

// Region is a server region with its daily reset time (HH:MM:SS)
type Region struct {
	ID        string `json:"id"`
	ResetTime string `json:"reset_time"`
}

type Currency struct {
	ID      string `json:"id"`
	Tracked bool   `json:"tracked,omitempty"`
	Primary bool   `json:"primary,omitempty"`
}

type GachaBanner struct {
	ID         string                `json:"id"`
	PullCost   []types.CurrencyValue `json:"pull_cost"`
	Rate       float64               `json:"rate"`
	FiftyFifty bool                  `json:"fifty_fifty_system,omitempty"`
	TargetRate float64               `json:"target_rate,omitempty"`
}

// Task is a tracked task and its rewards
type Task struct {
	ID             string                `json:"id"`
	Rewards        []types.CurrencyValue `json:"rewards,omitempty"`
	Steps          int                   `json:"steps,omitempty"`
	SteppedRewards []SteppedReward       `json:"stepped_rewards,omitempty"`
	RankedStages   *RankedStages         `json:"ranked_stages,omitempty"`
}

// PeriodicTask resets every ResetPeriod days counted from ResetDay
type PeriodicTask struct {
	Task
	ResetDay    string `json:"reset_day"`
	ResetPeriod int    `json:"reset_period"`
}

// RankedStages rewards each stage cleared within a cycle of ResetPeriod
// days counted from ResetDay.
type RankedStages struct {
	ResetDay       string        `json:"reset_day"`
	ResetPeriod    int           `json:"reset_period"`
	ProgressLabels []string      `json:"progress_labels,omitempty"`
	SumRewards     bool          `json:"sum_rewards,omitempty"`
	Stages         []RankedStage `json:"stages"`
}

type RankedStage struct {
	ID      string          `json:"id"`
	Rewards []SteppedReward `json:"rewards"`
}

type SteppedReward struct {
	Step       int                   `json:"step"`
	Currencies []types.CurrencyValue `json:"currencies"`
}

// SortOrder returns Order, or DefaultOrder when unset.
func (g *Game) SortOrder() int {
	if g.Order == nil {
		return DefaultOrder
	}
	return *g.Order
}

// ResetWeekday parses WeeklyResetDay. An empty value means Monday.
func (g *Game) ResetWeekday() (time.Weekday, error) {
	if g.WeeklyResetDay == "" {
		return time.Monday, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(g.WeeklyResetDay, d.String()) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidReset, g.WeeklyResetDay)
}

// Region returns the region with the given id.
func (g *Game) Region(id string) (Region, bool) {
	for _, r := range g.Regions {
		if r.ID == id {
			return r, true
		}
	}
	return Region{}, false
}

// IconPath is the game's icon relative to the catalog root.
func (g *Game) IconPath() string {
	return path.Join(g.Dir, "images", "icon.png")
}

// LocaleDir is the game's translation directory relative to the catalog root.
func (g *Game) LocaleDir() string {
	return path.Join(g.Dir, "i18n")
}

// Validate checks the fields the rest of the application relies on
func (g *Game) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return ErrMissingID
	}
	if _, err := g.ResetWeekday(); err != nil {
		return err
	}
	for i, r := range g.Regions {
		if r.ID == "" {
			return fmt.Errorf("region %d: %w", i, types.ErrEmptyRegion)
		}
	}
	return nil
}

// Catalog is the set of known games
type Catalog struct {
	games map[string]*Game
	order []*Game
}

// New builds a catalog from already loaded games.
func New(games ...*Game) (*Catalog, error) {
	c := &Catalog{games: make(map[string]*Game, len(games))}
	for _, g := range games {
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("game %q: %w", g.ID, err)
		}
		if _, ok := c.games[g.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateGame, g.ID)
		}
		c.games[g.ID] = g
		c.order = append(c.order, g)
	}

	// by id, then stable by order
	sort.Slice(c.order, func(i, j int) bool { return c.order[i].ID < c.order[j].ID })
	sort.SliceStable(c.order, func(i, j int) bool { return c.order[i].SortOrder() < c.order[j].SortOrder() })
	return c, nil
}

// LoadDir loads every <dir>/<game>/data.json.
func LoadDir(dir string, logger *zap.Logger) (*Catalog, error) {
	return Load(os.DirFS(dir), logger)
}

// Load reads every top-level directory of fsys that contains a data.json.
// Directories without one are skipped.
func Load(fsys fs.FS, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("catalog")

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read game data directory: %w", err)
	}

	var games []*Game
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		data, err := fs.ReadFile(fsys, path.Join(entry.Name(), DataFile))
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("data.json not found in game folder", zap.String("dir", entry.Name()))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s/%s: %w", entry.Name(), DataFile, err)
		}

		var g Game
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("failed to parse %s/%s: %w", entry.Name(), DataFile, err)
		}
		g.Dir = entry.Name()
		games = append(games, &g)

		logger.Debug("game loaded", zap.String("id", g.ID), zap.String("dir", g.Dir))
	}

	return New(games...)
}

// Get returns the game with the given id.
func (c *Catalog) Get(id string) (*Game, bool) {
	g, ok := c.games[id]
	return g, ok
}

// Games returns the games sorted by order, then id.
func (c *Catalog) Games() []*Game {
	out := make([]*Game, len(c.order))
	copy(out, c.order)
	return out
}

// IDs returns the game ids in Games order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.order))
	for _, g := range c.order {
		ids = append(ids, g.ID)
	}
	return ids
}

// Len returns the number of games.
func (c *Catalog) Len() int {
	return len(c.order)
}

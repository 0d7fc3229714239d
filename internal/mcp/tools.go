package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/dshills/questlog/internal/app"
	"github.com/dshills/questlog/internal/catalog"
	"github.com/dshills/questlog/internal/storage"
	"github.com/dshills/questlog/internal/tracker"
	"github.com/dshills/questlog/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams    = -32602 // Invalid method parameters
	ErrorCodeInternalError    = -32603 // Internal JSON-RPC error
	ErrorCodeUnknownGame      = -32001 // Game id is not in the catalog
	ErrorCodeRecordNotFound   = -32002 // No record for the requested key
	ErrorCodeStoreUnreachable = -32010 // Store path or directory unusable
	ErrorCodeCorruptStore     = -32011 // Store file failed the integrity probe
	ErrorCodePoolExhausted    = -32012 // No connection became free in time
	ErrorCodeMigrationFailed  = -32013 // A schema migration aborted
	ErrorCodeIncompatible     = -32014 // Store written by a newer build
)

// handleGreet handles the greet tool invocation
func (s *Server) handleGreet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	name, err := requireString(args, "name")
	if err != nil {
		return nil, err
	}

	return mcp.NewToolResultText(fmt.Sprintf("Hello, %s! You've been greeted from questlog!", name)), nil
}

// handleOpenStore handles the open_store tool invocation
func (s *Server) handleOpenStore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	appDir, err := requireString(args, "app_dir")
	if err != nil {
		return nil, err
	}
	fileName, err := requireString(args, "file_name")
	if err != nil {
		return nil, err
	}

	if err := validateDir(appDir); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid app_dir", map[string]interface{}{
			"param":  "app_dir",
			"reason": err.Error(),
		})
	}
	if fileName != filepath.Base(fileName) || strings.ContainsAny(fileName, `/\`) {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid file_name", map[string]interface{}{
			"param":  "file_name",
			"reason": "must be a bare file name",
		})
	}

	if _, err := s.app.OpenFile(ctx, appDir, fileName); err != nil {
		s.logger.Warn("open_store failed", zap.String("app_dir", appDir), zap.String("file_name", fileName), zap.Error(err))
		return nil, storeError(err)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"success": true,
	})), nil
}

// handleListGames handles the list_games tool invocation
func (s *Server) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	games := make([]map[string]interface{}, 0)
	for _, g := range s.app.Games() {
		regions := make([]string, 0, len(g.Regions))
		for _, r := range g.Regions {
			regions = append(regions, r.ID)
		}
		games = append(games, map[string]interface{}{
			"id":               g.ID,
			"name_key":         g.NameKey,
			"order":            g.SortOrder(),
			"regions":          regions,
			"weekly_reset_day": g.WeeklyResetDay,
			"icon":             g.IconPath(),
			"locale_dir":       g.LocaleDir(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"games": games,
	})), nil
}

// handleStoreStatus handles the store_status tool invocation
func (s *Server) handleStoreStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	st, err := s.store(args)
	if err != nil {
		return nil, err
	}

	manager := s.app.Manager()
	version, err := manager.SchemaVersion(ctx, st.Handle)
	if err != nil {
		return nil, storeError(err)
	}
	status := manager.Status(st.Handle)
	stats := st.Handle.Stats()

	response := map[string]interface{}{
		"game":           st.Game.ID,
		"path":           stats.Path,
		"state":          status.State.String(),
		"schema_version": version,
		"latest_version": manager.Latest(),
		"pool": map[string]interface{}{
			"max_size":         stats.MaxPoolSize,
			"open":             stats.Open,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
			"wait_count":       stats.WaitCount,
			"wait_duration_ms": stats.WaitDuration.Milliseconds(),
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRecordTask handles the record_task tool invocation
func (s *Server) handleRecordTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	st, err := s.store(args)
	if err != nil {
		return nil, err
	}
	kind, err := taskKindParam(args)
	if err != nil {
		return nil, err
	}
	date, err := dateParam(args, "date")
	if err != nil {
		return nil, err
	}
	region, err := regionParam(st.Game, args)
	if err != nil {
		return nil, err
	}
	name, err := requireString(args, "name")
	if err != nil {
		return nil, err
	}
	currencies, err := currenciesParam(args)
	if err != nil {
		return nil, err
	}

	record := &types.TaskRecord{
		Kind:       kind,
		Date:       date,
		Region:     region,
		Name:       name,
		Value:      int64(getIntDefault(args, "value", 1)),
		Currencies: currencies,
		Notes:      getStringDefault(args, "notes", ""),
	}
	if err := record.Validate(); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid record", map[string]interface{}{
			"reason": err.Error(),
		})
	}

	if err := st.Tracker.Upsert(ctx, record); err != nil {
		return nil, storeError(err)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"saved":  true,
		"record": recordJSON(*record),
	})), nil
}

// handleListRecords handles the list_records tool invocation
func (s *Server) handleListRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	st, err := s.store(args)
	if err != nil {
		return nil, err
	}
	kind, err := taskKindParam(args)
	if err != nil {
		return nil, err
	}
	region, err := regionParam(st.Game, args)
	if err != nil {
		return nil, err
	}

	var records []types.TaskRecord
	_, hasDate := args["date"]
	_, hasStart := args["start"]
	_, hasEnd := args["end"]
	_, hasWeek := args["week"]
	switch {
	case hasWeek && !hasDate && !hasStart && !hasEnd:
		day, err := dateParam(args, "week")
		if err != nil {
			return nil, err
		}
		resetDay, err := st.Game.ResetWeekday()
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "invalid weekly reset day", map[string]interface{}{
				"game":  st.Game.ID,
				"error": err.Error(),
			})
		}
		start, end := tracker.WeekOf(day, resetDay)
		records, err = st.Tracker.RecordsForRange(ctx, kind, start, end, region)
		if err != nil {
			return nil, storeError(err)
		}
	case hasDate && !hasStart && !hasEnd && !hasWeek:
		date, err := dateParam(args, "date")
		if err != nil {
			return nil, err
		}
		records, err = st.Tracker.RecordsForDay(ctx, kind, date, region)
		if err != nil {
			return nil, storeError(err)
		}
	case hasStart && hasEnd && !hasDate && !hasWeek:
		start, err := dateParam(args, "start")
		if err != nil {
			return nil, err
		}
		end, err := dateParam(args, "end")
		if err != nil {
			return nil, err
		}
		if end < start {
			return nil, newMCPError(ErrorCodeInvalidParams, "end must not be before start", map[string]interface{}{
				"start": start.String(),
				"end":   end.String(),
			})
		}
		records, err = st.Tracker.RecordsForRange(ctx, kind, start, end, region)
		if err != nil {
			return nil, storeError(err)
		}
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "provide exactly one of date, week, or both start and end", nil)
	}

	out := make([]map[string]interface{}, 0, len(records))
	earned := make([][]types.CurrencyValue, 0, len(records))
	for _, r := range records {
		out = append(out, recordJSON(r))
		earned = append(earned, r.Currencies)
	}
	totals := types.SumCurrencies(earned...)
	if totals == nil {
		totals = []types.CurrencyValue{}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"count":           len(out),
		"records":         out,
		"currency_totals": totals,
	})), nil
}

// handleRecordCurrencies handles the record_currencies tool invocation
func (s *Server) handleRecordCurrencies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	st, err := s.store(args)
	if err != nil {
		return nil, err
	}
	date, err := dateParam(args, "date")
	if err != nil {
		return nil, err
	}
	region, err := regionParam(st.Game, args)
	if err != nil {
		return nil, err
	}
	currencies, err := currenciesParam(args)
	if err != nil {
		return nil, err
	}
	if len(currencies) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "currencies parameter is required", map[string]interface{}{
			"param":  "currencies",
			"reason": "missing or empty",
		})
	}

	snapshot := &types.CurrencySnapshot{
		Date:       date,
		Region:     region,
		Currencies: currencies,
		Notes:      getStringDefault(args, "notes", ""),
	}
	if err := snapshot.Validate(); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid snapshot", map[string]interface{}{
			"reason": err.Error(),
		})
	}

	id, err := st.Tracker.AddCurrencyHistory(ctx, snapshot)
	if err != nil {
		return nil, storeError(err)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"saved": true,
		"id":    id,
	})), nil
}

// handleCurrencyHistory handles the currency_history tool invocation
func (s *Server) handleCurrencyHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	st, err := s.store(args)
	if err != nil {
		return nil, err
	}
	region, err := regionParam(st.Game, args)
	if err != nil {
		return nil, err
	}
	start, err := dateParam(args, "start")
	if err != nil {
		return nil, err
	}
	end, err := dateParam(args, "end")
	if err != nil {
		return nil, err
	}
	if end < start {
		return nil, newMCPError(ErrorCodeInvalidParams, "end must not be before start", map[string]interface{}{
			"start": start.String(),
			"end":   end.String(),
		})
	}

	history, err := st.Tracker.CurrencyHistory(ctx, region, start, end)
	if err != nil {
		return nil, storeError(err)
	}

	out := make([]map[string]interface{}, 0, len(history))
	for _, h := range history {
		currencies := h.Currencies
		if currencies == nil {
			currencies = []types.CurrencyValue{}
		}
		entry := map[string]interface{}{
			"id":         h.ID,
			"date":       int(h.Date),
			"region":     h.Region,
			"currencies": currencies,
			"notes":      h.Notes,
		}
		if !h.CreatedAt.IsZero() {
			entry["created_at"] = h.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
		}
		out = append(out, entry)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"count":     len(out),
		"snapshots": out,
	})), nil
}

// handleGetRecord handles the get_record tool invocation
func (s *Server) handleGetRecord(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	st, err := s.store(args)
	if err != nil {
		return nil, err
	}
	kind, err := taskKindParam(args)
	if err != nil {
		return nil, err
	}
	date, err := dateParam(args, "date")
	if err != nil {
		return nil, err
	}
	region, err := regionParam(st.Game, args)
	if err != nil {
		return nil, err
	}
	name, err := requireString(args, "name")
	if err != nil {
		return nil, err
	}

	record, err := st.Tracker.Record(ctx, kind, date, region, name)
	if err != nil {
		return nil, storeError(err)
	}

	return mcp.NewToolResultText(formatJSON(recordJSON(*record))), nil
}

// Helper functions

func (s *Server) store(args map[string]interface{}) (*app.Store, error) {
	game, err := requireString(args, "game")
	if err != nil {
		return nil, err
	}
	if _, ok := s.app.Catalog().Get(game); !ok {
		return nil, unknownGame(s.app.Catalog(), game)
	}
	st, err := s.app.Store(game)
	if errors.Is(err, app.ErrUnknownGame) {
		return nil, unknownGame(s.app.Catalog(), game)
	}
	if err != nil {
		return nil, storeError(err)
	}
	return st, nil
}

func unknownGame(c *catalog.Catalog, game string) error {
	return newMCPError(ErrorCodeUnknownGame, "unknown game", map[string]interface{}{
		"param": "game",
		"value": game,
		"known": c.IDs(),
	})
}

// regionParam requires a region the game defines. Games without a region
// list accept any region.
func regionParam(g *catalog.Game, args map[string]interface{}) (string, error) {
	region, err := requireString(args, "region")
	if err != nil {
		return "", err
	}
	if g == nil || len(g.Regions) == 0 {
		return region, nil
	}
	if _, ok := g.Region(region); !ok {
		known := make([]string, 0, len(g.Regions))
		for _, r := range g.Regions {
			known = append(known, r.ID)
		}
		return "", newMCPError(ErrorCodeInvalidParams, "unknown region", map[string]interface{}{
			"param":   "region",
			"value":   region,
			"allowed": known,
		})
	}
	return region, nil
}

func recordJSON(r types.TaskRecord) map[string]interface{} {
	currencies := r.Currencies
	if currencies == nil {
		currencies = []types.CurrencyValue{}
	}
	out := map[string]interface{}{
		"kind":       string(r.Kind),
		"date":       int(r.Date),
		"region":     r.Region,
		"name":       r.Name,
		"value":      r.Value,
		"currencies": currencies,
		"notes":      r.Notes,
	}
	if !r.UpdatedAt.IsZero() {
		out["updated_at"] = r.UpdatedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return out
}

// storeError translates store and tracker failures into MCP errors
func storeError(err error) error {
	data := map[string]interface{}{
		"error": err.Error(),
	}

	switch storage.KindOf(err) {
	case storage.KindUnreachable:
		return newMCPError(ErrorCodeStoreUnreachable, "store unreachable", data)
	case storage.KindCorruptFile:
		return newMCPError(ErrorCodeCorruptStore, "store file is corrupt", data)
	case storage.KindPoolExhausted:
		return newMCPError(ErrorCodePoolExhausted, "store is busy, try again", data)
	case storage.KindMigrationFailed:
		if v, ok := storage.MigrationVersion(err); ok {
			data["version"] = v
		}
		return newMCPError(ErrorCodeMigrationFailed, "migration failed", data)
	case storage.KindIncompatible:
		return newMCPError(ErrorCodeIncompatible, "store written by a newer version", data)
	}

	if errors.Is(err, tracker.ErrNotFound) {
		return newMCPError(ErrorCodeRecordNotFound, "record not found", data)
	}
	return newMCPError(ErrorCodeInternalError, "store operation failed", data)
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validateDir checks that path is an absolute, existing directory
func validateDir(path string) error {
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}
	return nil
}

// requireString extracts a non-empty string parameter
func requireString(args map[string]interface{}, key string) (string, error) {
	val, ok := args[key].(string)
	if !ok || strings.TrimSpace(val) == "" {
		return "", newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	return val, nil
}

func taskKindParam(args map[string]interface{}) (types.TaskKind, error) {
	raw, err := requireString(args, "kind")
	if err != nil {
		return "", err
	}
	kind, err := types.ParseTaskKind(raw)
	if err != nil {
		return "", newMCPError(ErrorCodeInvalidParams, "invalid kind", map[string]interface{}{
			"param":   "kind",
			"value":   raw,
			"allowed": taskKindEnum,
		})
	}
	return kind, nil
}

// dateParam accepts a YYYYMMDD number or a date string
func dateParam(args map[string]interface{}, key string) (types.Date, error) {
	var raw string
	switch v := args[key].(type) {
	case string:
		raw = v
	case float64:
		raw = fmt.Sprintf("%.0f", v)
	case int:
		raw = fmt.Sprint(v)
	default:
		return 0, newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or not a date",
		})
	}

	d, err := types.ParseDate(raw)
	if err != nil {
		return 0, newMCPError(ErrorCodeInvalidParams, "invalid "+key, map[string]interface{}{
			"param":  key,
			"reason": err.Error(),
		})
	}
	return d, nil
}

// currenciesParam decodes the optional currencies array
func currenciesParam(args map[string]interface{}) ([]types.CurrencyValue, error) {
	raw, ok := args["currencies"]
	if !ok || raw == nil {
		return nil, nil
	}

	// round-trip through JSON so any decoded shape maps onto CurrencyValue
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid currencies", nil)
	}
	var values []types.CurrencyValue
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid currencies", map[string]interface{}{
			"param":  "currencies",
			"reason": err.Error(),
		})
	}
	return values, nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)

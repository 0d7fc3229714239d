package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var taskKindEnum = []string{"daily", "weekly", "periodic", "event", "other"}

// greetTool returns the tool definition for greet
func greetTool() mcp.Tool {
	return mcp.Tool{
		Name:        "greet",
		Description: "Return a greeting; useful to check the server is alive",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Name to greet",
				},
			},
			Required: []string{"name"},
		},
	}
}

// openStoreTool returns the tool definition for open_store
func openStoreTool() mcp.Tool {
	return mcp.Tool{
		Name:        "open_store",
		Description: "Open a store file, creating and migrating it if needed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"app_dir": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path of an existing directory that holds the store",
				},
				"file_name": map[string]interface{}{
					"type":        "string",
					"description": "Store file name, without directories (e.g. test.db)",
				},
			},
			Required: []string{"app_dir", "file_name"},
		},
	}
}

// listGamesTool returns the tool definition for list_games
func listGamesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_games",
		Description: "List the tracked games in display order",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// storeStatusTool returns the tool definition for store_status
func storeStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "store_status",
		Description: "Report lifecycle state, schema version and pool usage of a game store",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game": map[string]interface{}{
					"type":        "string",
					"description": "Game id from list_games",
				},
			},
			Required: []string{"game"},
		},
	}
}

// recordTaskTool returns the tool definition for record_task
func recordTaskTool() mcp.Tool {
	return mcp.Tool{
		Name:        "record_task",
		Description: "Save the progress of a task for a day, replacing any earlier value",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game": map[string]interface{}{
					"type":        "string",
					"description": "Game id from list_games",
				},
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Task kind",
					"enum":        taskKindEnum,
				},
				"date": map[string]interface{}{
					"type":        "string",
					"description": "Day as YYYYMMDD or YYYY-MM-DD",
				},
				"region": map[string]interface{}{
					"type":        "string",
					"description": "Game region id",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Task id",
				},
				"value": map[string]interface{}{
					"type":        "integer",
					"description": "Progress value (steps completed, or 1 for done)",
					"default":     1,
				},
				"currencies": map[string]interface{}{
					"type":        "array",
					"description": "Currencies earned",
					"items":       currencyItems,
				},
				"notes": map[string]interface{}{
					"type":        "string",
					"description": "Free-form notes",
				},
			},
			Required: []string{"game", "kind", "date", "region", "name"},
		},
	}
}

// listRecordsTool returns the tool definition for list_records
func listRecordsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_records",
		Description: "List task records for one day, one reset week, or a half-open range of days, with currency totals",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game": map[string]interface{}{
					"type":        "string",
					"description": "Game id from list_games",
				},
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Task kind",
					"enum":        taskKindEnum,
				},
				"region": map[string]interface{}{
					"type":        "string",
					"description": "Game region id",
				},
				"date": map[string]interface{}{
					"type":        "string",
					"description": "Single day as YYYYMMDD or YYYY-MM-DD",
				},
				"start": map[string]interface{}{
					"type":        "string",
					"description": "First day of the range (inclusive); requires end",
				},
				"end": map[string]interface{}{
					"type":        "string",
					"description": "Day after the range (exclusive); requires start",
				},
				"week": map[string]interface{}{
					"type":        "string",
					"description": "Any day of the week to list, counted from the game's weekly reset day",
				},
			},
			Required: []string{"game", "kind", "region"},
		},
	}
}

// getRecordTool returns the tool definition for get_record
func getRecordTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_record",
		Description: "Read one task record by kind, day, region and task name",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game": map[string]interface{}{
					"type":        "string",
					"description": "Game id from list_games",
				},
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Task kind",
					"enum":        taskKindEnum,
				},
				"date": map[string]interface{}{
					"type":        "string",
					"description": "Day as YYYYMMDD or YYYY-MM-DD",
				},
				"region": map[string]interface{}{
					"type":        "string",
					"description": "Game region id",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Task name",
				},
			},
			Required: []string{"game", "kind", "date", "region", "name"},
		},
	}
}

var currencyItems = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"currency": map[string]interface{}{"type": "string"},
		"amount":   map[string]interface{}{"type": "integer"},
	},
	"required": []string{"currency", "amount"},
}

// recordCurrenciesTool returns the tool definition for record_currencies
func recordCurrenciesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "record_currencies",
		Description: "Append a snapshot of currency balances for a region",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game": map[string]interface{}{
					"type":        "string",
					"description": "Game id from list_games",
				},
				"date": map[string]interface{}{
					"type":        "string",
					"description": "Day as YYYYMMDD or YYYY-MM-DD",
				},
				"region": map[string]interface{}{
					"type":        "string",
					"description": "Game region id",
				},
				"currencies": map[string]interface{}{
					"type":        "array",
					"description": "Balances at the time of the snapshot",
					"items":       currencyItems,
				},
				"notes": map[string]interface{}{
					"type":        "string",
					"description": "Free-form notes",
				},
			},
			Required: []string{"game", "date", "region", "currencies"},
		},
	}
}

// currencyHistoryTool returns the tool definition for currency_history
func currencyHistoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "currency_history",
		Description: "List currency snapshots of a region for a half-open range of days, oldest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game": map[string]interface{}{
					"type":        "string",
					"description": "Game id from list_games",
				},
				"region": map[string]interface{}{
					"type":        "string",
					"description": "Game region id",
				},
				"start": map[string]interface{}{
					"type":        "string",
					"description": "First day of the range (inclusive)",
				},
				"end": map[string]interface{}{
					"type":        "string",
					"description": "Day after the range (exclusive)",
				},
			},
			Required: []string{"game", "region", "start", "end"},
		},
	}
}

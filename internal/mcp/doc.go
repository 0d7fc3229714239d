// Package mcp implements the Model Context Protocol (MCP) server for questlog.
//
// The server is a thin adapter over a started app.App. It exposes:
//   - greet: liveness check
//   - open_store: open and migrate a store file in a given directory
//   - list_games: tracked games in display order
//   - store_status: lifecycle state, schema version and pool usage
//   - record_task: save a task's progress for a day
//   - list_records: read records for a day, a reset week or a range of days
//   - get_record: read one task record by its key
//   - record_currencies: append a currency balance snapshot
//   - currency_history: read currency snapshots for a range of days
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Logs go to stderr so they never interleave with protocol messages.
//
// # Tool: open_store
//
//	Request:
//	{
//	  "name": "open_store",
//	  "arguments": {
//	    "app_dir": "/home/me/.config/questlog",
//	    "file_name": "test.db"
//	  }
//	}
//
//	Response:
//	{
//	  "success": true
//	}
//
// # Tool: record_task
//
//	Request:
//	{
//	  "name": "record_task",
//	  "arguments": {
//	    "game": "genshin",
//	    "kind": "daily",
//	    "date": "2024-01-31",
//	    "region": "eu",
//	    "name": "commissions",
//	    "value": 4,
//	    "currencies": [{"currency": "primogem", "amount": 60}]
//	  }
//	}
//
// # Error Handling
//
// Failures are returned as MCPError values. Store failures map onto their
// own codes:
//
//	-32602  Invalid params
//	-32603  Internal error
//	-32001  Unknown game
//	-32002  Record not found
//	-32010  Store unreachable
//	-32011  Store file corrupt
//	-32012  Connection pool exhausted
//	-32013  Migration failed (data.version holds the failing migration)
//	-32014  Store written by a newer version
package mcp

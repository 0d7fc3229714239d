// Package paths resolves where questlog keeps its files.
//
// The data directory defaults to the platform config directory plus
// "questlog" and can be overridden with QUESTLOG_DATA_DIR or --data-dir.
// Stores live in its db subdirectory, one file per game.
package paths

// Package catalog loads the game definitions questlog tracks.
//
// Each game lives in its own directory under the game data root and is
// described by a data.json file. Directories without one are skipped.
// Games are listed by their order field (100 when absent), ties broken by id.
package catalog

// Package tracker stores per-game task progress and currency snapshots.
//
// Each task kind has its own table keyed by (date, region, name). Queries
// are built with squirrel and run on a connection borrowed from the store
// for the length of one call:
//
//	t := tracker.New(handle, logger)
//	err := t.Upsert(ctx, &types.TaskRecord{
//	    Kind: types.KindDaily, Date: 20240131, Region: "eu", Name: "commissions", Value: 4,
//	})
//
//	start, end := tracker.WeekOf(types.DateOf(time.Now()), time.Monday)
//	week, err := t.RecordsForRange(ctx, types.KindWeekly, start, end, "eu")
//
// The store must already be migrated; see package migrate.
package tracker

// Package types provides shared type definitions for questlog.
//
// # Task Records
//
// A TaskRecord is one task's progress on one day in one game region.
// Records are grouped by TaskKind, which also names the table they are
// stored in:
//
//	record := &types.TaskRecord{
//	    Kind:   types.KindDaily,
//	    Date:   types.DateOf(time.Now()),
//	    Region: "eu",
//	    Name:   "commissions",
//	    Value:  4,
//	    Currencies: []types.CurrencyValue{
//	        {Currency: "primogem", Amount: 60},
//	    },
//	}
//
// # Dates
//
// Date is an integer of the form YYYYMMDD. Ranges are half open, so a week
// starting on d covers d through d.AddDays(7) exclusive.
//
// # Validation
//
//	if err := record.Validate(); err != nil {
//	    return err
//	}
package types

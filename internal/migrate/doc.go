// Package migrate brings questlog stores to a usable schema.
//
// A Manager walks each store through Uninitialized, Migrating(v) and Ready.
// EnsureReady applies every pending migration in version order, one
// transaction per migration, and records each in the schema_version table.
// A failure stops the walk and reports the failing version; everything
// before it stays committed, so the next EnsureReady resumes from there.
//
//	mgr, err := migrate.New(migrate.WithBuildVersion(version), migrate.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	if err := mgr.EnsureReady(ctx, handle); err != nil {
//	    if v, ok := storage.MigrationVersion(err); ok {
//	        // migration v failed
//	    }
//	    return err
//	}
//
// Stores written by a newer schema, or by a newer major release of the
// application, are refused with storage.ErrIncompatible.
package migrate

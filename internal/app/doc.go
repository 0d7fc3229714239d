// Package app wires the catalog, the path resolver and the lifecycle
// manager into one container of ready stores.
//
//	a, err := app.Start(ctx, app.Config{
//	    Catalog:  games,
//	    Resolver: paths.NewResolver(),
//	    Manager:  mgr,
//	    Options:  opts,
//	})
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	s, err := a.Store("genshin")
//
// Stores are handed to consumers explicitly; nothing is kept in package
// state.
package app

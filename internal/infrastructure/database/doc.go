// Package database provides the node's SQLite connection and schema
// migrations.
//
// The database holds the actuator audit trail only; telemetry is never
// stored here. Migrations are embedded by the top-level migrations package
// and applied at startup:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database

// Package database provides the SQLite store behind the directive audit log.
//
// Open configures the connection (WAL, busy timeout, foreign keys, 0600
// file permissions). Migrate applies versioned SQL files from any fs.FS;
// the binary passes the embedded migrations.FS.
//
// Migrations are additive: new columns are NULLABLE or carry a DEFAULT,
// and every .up.sql ships a .down.sql.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database

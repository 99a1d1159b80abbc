// Package sqlite provides the SQLite plumbing behind listing exports.
//
// Opening a database with the default settings:
//
//	db, err := sqlite.NewDB(ctx, "night.db")
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
// Migrations are read from an fs.FS, normally embedded in the binary:
//
//	//go:embed migrations/*.sql
//	var migrations embed.FS
//
//	err = sqlite.ApplyMigrations(migrations, "migrations", "night.db")
//
// Writes run in a transaction that is retried while the file is locked
// by another process:
//
//	runner := sqlite.NewTxRunner(db)
//	err = runner.WithinTx(ctx, func(ctx context.Context) error {
//		_, err := runner.GetQuerier(ctx).ExecContext(ctx, "INSERT INTO runs (start) VALUES (?)", start)
//		return err
//	})
//
// Tests get a throwaway file database with NewTestDBFile.
package sqlite

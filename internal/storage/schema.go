// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Defines tables for points, graphs, experiments, sync_logs, accounts.
package storage

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS graphs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		is_temporary INTEGER NOT NULL DEFAULT 0,
		tracked_metrics TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS points (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		metric_name TEXT NOT NULL,
		value REAL NOT NULL,
		graph_id TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (graph_id) REFERENCES graphs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS experiments (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		driver TEXT,
		period TEXT NOT NULL,
		start_date TEXT,
		end_date TEXT,
		metric_of_interest TEXT NOT NULL,
		benchmark TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sync_logs (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		sync_type TEXT NOT NULL,
		status TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		records_imported INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,
		started_at DATETIME NOT NULL,
		completed_at DATETIME,
		FOREIGN KEY (account_id) REFERENCES accounts(id)
	);

	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		oura_token TEXT,
		fitbit_access_token TEXT,
		fitbit_refresh_token TEXT,
		fitbit_token_expires_at DATETIME,
		fitbit_user_id TEXT,
		last_oura_sync DATETIME,
		last_fitbit_sync DATETIME,
		sync_enabled INTEGER NOT NULL DEFAULT 0,
		sync_frequency TEXT NOT NULL DEFAULT 'manual',
		next_scheduled_sync DATETIME,
		selected_dashboard_metrics TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_points_natural_key
		ON points(date, metric_name, COALESCE(graph_id, ''));
	CREATE INDEX IF NOT EXISTS idx_points_metric_date ON points(metric_name, date);
	CREATE INDEX IF NOT EXISTS idx_points_graph ON points(graph_id);
	CREATE INDEX IF NOT EXISTS idx_sync_logs_account ON sync_logs(account_id, started_at DESC);
	`

	_, err := d.db.Exec(schema)
	return err
}

// Package sqlite provides a SQLite-backed session store. Search
// sessions survive process restarts so past searches can be reviewed
// and compared.
package sqlite

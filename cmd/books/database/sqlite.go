package database

import (
	"database/sql"

	gosqlite3 "github.com/mattn/go-sqlite3"
	"golang.org/x/text/cases"
)

// sqliteUnicodeDriver is go-sqlite3 with lower() replaced by Unicode case
// folding. The built-in one only folds ASCII letters.
const sqliteUnicodeDriver = "sqlite3_unicode"

func init() {
	sql.Register(sqliteUnicodeDriver, &gosqlite3.SQLiteDriver{
		ConnectHook: func(conn *gosqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", foldCase, true)
		},
	})
}

func foldCase(s string) string {
	return cases.Fold().String(s)
}

func sqlDriverName(driver string) string {
	if driver == DriverSQLite {
		return sqliteUnicodeDriver
	}
	return driver
}

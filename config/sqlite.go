package config

import (
	"database/sql"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLiteDriverName is the database/sql driver used for SQLite connections.
// It replaces SQLite's ASCII-only lower() and upper() with Unicode case
// mapping so LOWER(col) LIKE LOWER(?) folds "Über" like MySQL and Postgres do.
const SQLiteDriverName = "sqlite3_unicode"

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.RegisterFunc("lower", foldCase(strings.ToLower), true); err != nil {
				return err
			}
			return conn.RegisterFunc("upper", foldCase(strings.ToUpper), true)
		},
	})
}

// foldCase applies fn to text arguments and passes NULL and other values through.
func foldCase(fn func(string) string) func(interface{}) interface{} {
	return func(v interface{}) interface{} {
		switch s := v.(type) {
		case string:
			return fn(s)
		case []byte:
			return fn(string(s))
		default:
			return v
		}
	}
}

// SQLiteDialector opens dsn through SQLiteDriverName.
func SQLiteDialector(dsn string) gorm.Dialector {
	return &sqlite.Dialector{DriverName: SQLiteDriverName, DSN: dsn}
}

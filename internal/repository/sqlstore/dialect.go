package sqlstore

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// pgUniqueViolation - SQLSTATE unique_violation
const pgUniqueViolation = "23505"

// Dialect описывает различия Postgres и SQLite: драйвер, плейсхолдеры, DDL и коды ошибок.
type Dialect struct {
	Name       string
	DriverName string

	// SingleConn - SQLite держит одно соединение (in-memory база живет внутри него,
	// а запись в файл всё равно сериализуется движком).
	SingleConn bool

	schema            []string
	dollarPlaceholder bool
	isUniqueViolation func(error) bool
}

var Postgres = Dialect{
	Name:              "postgres",
	DriverName:        "pgx",
	schema:            postgresSchema,
	dollarPlaceholder: true,
	isUniqueViolation: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
	},
}

var SQLite = Dialect{
	Name:       "sqlite",
	DriverName: "sqlite",
	SingleConn: true,
	schema:     sqliteSchema,
	isUniqueViolation: func(err error) bool {
		var sqErr *sqlite.Error
		if !errors.As(err, &sqErr) {
			return false
		}
		switch sqErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		return false
	},
}

// DialectByName сопоставляет значение storage.driver из конфига с диалектом.
func DialectByName(name string) (Dialect, bool) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgx":
		return Postgres, true
	case "sqlite", "sqlite3":
		return SQLite, true
	}
	return Dialect{}, false
}

// rebind переводит '?' в '$N' для Postgres. Запросы пишутся один раз в стиле SQLite.
func (d Dialect) rebind(query string) string {
	if !d.dollarPlaceholder {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

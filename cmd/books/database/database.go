package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/books-manager/cmd/books/book"
	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/rs/zerolog/log"

	_ "github.com/golang-migrate/migrate/v4/source/file"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite3"
)

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db     *sql.DB
	driver string
	exc    *Executor
}

type Executor struct {
	DBTX
}

func NewStore(db *sql.DB, driver string) *Store {
	return &Store{
		db:     db,
		driver: driver,
		exc:    NewExc(db),
	}
}

func NewExc(dbtx DBTX) *Executor {
	return &Executor{DBTX: dbtx}
}

/* Opens the database with the given driver and checks it is reachable. */
func ConnectDb(driver, connStr string) (*sql.DB, error) {
	sqlDB, err := sql.Open(sqlDriverName(driver), connStr)
	if err != nil {
		return nil, fmt.Errorf("connecting to db, opening: %w", err)
	}

	err = sqlDB.Ping()
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("connecting to db, pinging: %w", err)
	}

	log.Info().Str("driver", driver).Msg("connected to database")
	return sqlDB, nil
}

/* Applies the migrations found under path. The books table is created if missing. */
func MigrationUp(store *Store, path string) error {
	var (
		driver migratedb.Driver
		name   string
		err    error
	)
	switch store.driver {
	case DriverPostgres, DriverPgx:
		name = "postgres"
		driver, err = postgres.WithInstance(store.db, &postgres.Config{})
	case DriverSQLite:
		name = "sqlite3"
		driver, err = sqlite3.WithInstance(store.db, &sqlite3.Config{})
	default:
		return fmt.Errorf("migrating up: unsupported driver %q", store.driver)
	}
	if err != nil {
		return fmt.Errorf("migrating up: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", path),
		name, driver)
	if err != nil {
		return fmt.Errorf("migrating up: %w", err)
	}

	err = m.Up()
	if err != nil {
		return fmt.Errorf("migrating up: %w", err)
	}
	return nil
}

/* Returns every book id in ascending order. */
func (store *Store) ListBookIDs(ctx context.Context) ([]int, error) {
	sqlStatement := `SELECT id FROM books ORDER BY id;`
	rows, err := store.exc.QueryContext(ctx, sqlStatement)
	if err != nil {
		return nil, fmt.Errorf("listing book ids from db: %w", err)
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("listing book ids from db: %w", err)
		}
		ids = append(ids, id)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("listing book ids from db: %w", err)
	}
	return ids, nil
}

/* Stores the book into the database and returns how many rows were inserted. */
func (store *Store) CreateBook(ctx context.Context, bookEntry book.Book) (int64, error) {
	sqlStatement := `
	INSERT INTO books (id, title, author, year)
	VALUES ($1, $2, $3, $4);`
	result, err := store.exc.ExecContext(ctx, sqlStatement, bookEntry.ID, bookEntry.Title, bookEntry.Author, bookEntry.Year)
	if err != nil {
		return 0, fmt.Errorf("storing book on db: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("storing book on db: %w", err)
	}
	return rows, nil
}

/* Returns the whole content of the books table, ordered by id. */
func (store *Store) ListBooks(ctx context.Context) ([]book.Book, error) {
	sqlStatement := `SELECT id, title, author, year FROM books ORDER BY id;`
	rows, err := store.exc.QueryContext(ctx, sqlStatement)
	if err != nil {
		return nil, fmt.Errorf("listing books from db: %w", err)
	}
	return scanBooks(rows, "listing books from db")
}

/* Counts the rows holding the given id: 0 or 1. */
func (store *Store) CountBooksByID(ctx context.Context, id int) (int, error) {
	sqlStatement := `SELECT COUNT(*) FROM books WHERE id = $1;`
	row := store.exc.QueryRowContext(ctx, sqlStatement, id)
	var count int
	err := row.Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting books from db: %w", err)
	}
	return count, nil
}

func (store *Store) UpdateBook(ctx context.Context, bookEntry book.Book) error {
	sqlStatement := `
	UPDATE books
	SET title = $1, author = $2, year = $3
	WHERE id = $4;`
	_, err := store.exc.ExecContext(ctx, sqlStatement, bookEntry.Title, bookEntry.Author, bookEntry.Year, bookEntry.ID)
	if err != nil {
		return fmt.Errorf("updating on db: %w", err)
	}
	return nil
}

func (store *Store) DeleteBook(ctx context.Context, id int) (int64, error) {
	sqlStatement := `
	DELETE FROM books
	WHERE id = $1;`
	result, err := store.exc.ExecContext(ctx, sqlStatement, id)
	if err != nil {
		return 0, fmt.Errorf("deleting book from db: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting book from db: %w", err)
	}
	return rows, nil
}

/* Returns books whose title or author matches the LIKE pattern, ignoring case. */
func (store *Store) SearchBooks(ctx context.Context, pattern string) ([]book.Book, error) {
	sqlStatement := `SELECT id, title, author, year FROM books
	WHERE LOWER(title) LIKE LOWER($1)
	OR LOWER(author) LIKE LOWER($1)
	ORDER BY id;`
	rows, err := store.exc.QueryContext(ctx, sqlStatement, pattern)
	if err != nil {
		return nil, fmt.Errorf("searching books on db: %w", err)
	}
	return scanBooks(rows, "searching books on db")
}

func scanBooks(rows *sql.Rows, doing string) ([]book.Book, error) {
	defer rows.Close()

	bookslist := []book.Book{}
	var bookToReturn book.Book
	for rows.Next() {
		err := rows.Scan(&bookToReturn.ID, &bookToReturn.Title, &bookToReturn.Author, &bookToReturn.Year)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", doing, err)
		}
		bookslist = append(bookslist, bookToReturn)
	}

	err := rows.Err()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doing, err)
	}
	return bookslist, nil
}

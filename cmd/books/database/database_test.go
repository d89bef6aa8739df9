package database_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/books-manager/cmd/books/book"
	"github.com/books-manager/cmd/books/database"
	"github.com/golang-migrate/migrate/v4"
	"github.com/matryer/is"
)

var store *database.Store
var sqlDB *sql.DB
var ctx context.Context = context.Background()

// TestMain sets up a throwaway sqlite database with the real migrations
// applied, so every test here runs the same SQL the CLI runs.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "books-db-test")
	if err != nil {
		log.Fatalln(err)
	}

	sqlDB, err = database.ConnectDb(database.DriverSQLite, filepath.Join(dir, "books.db"))
	if err != nil {
		log.Fatalln(err)
	}

	store = database.NewStore(sqlDB, database.DriverSQLite)
	path, err := filepath.Abs("../../../migrations/sqlite3")
	if err != nil {
		log.Fatalln(err)
	}
	err = database.MigrationUp(store, path)
	if err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalln(err)
		}
		log.Println(err)
	}

	code := m.Run()
	sqlDB.Close()
	os.RemoveAll(dir)
	os.Exit(code)
}

func TestMigrationUp(t *testing.T) {
	is := is.New(t)

	path, err := filepath.Abs("../../../migrations/sqlite3")
	is.NoErr(err)

	// The schema already exists, running again changes nothing.
	err = database.MigrationUp(store, path)
	is.True(errors.Is(err, migrate.ErrNoChange))
}

func TestCreateBook(t *testing.T) {
	t.Cleanup(func() {
		teardownDB(t)
	})

	t.Run("creates a book without errors", func(t *testing.T) {
		is := is.New(t)

		b := book.Book{ID: 1, Title: "A new book", Author: "Someone", Year: 2020}

		rows, err := store.CreateBook(ctx, b)
		is.NoErr(err)
		is.Equal(rows, int64(1))

		books, err := store.ListBooks(ctx)
		is.NoErr(err)
		is.Equal(books, []book.Book{b})
	})

	t.Run("creating a duplicated id fails on the primary key", func(t *testing.T) {
		is := is.New(t)

		_, err := store.CreateBook(ctx, book.Book{ID: 1, Title: "Another book", Author: "Someone else", Year: 2021})
		is.True(err != nil)
	})

	t.Run("empty title and author are stored as empty strings", func(t *testing.T) {
		is := is.New(t)

		b := book.Book{ID: 2, Title: "", Author: "", Year: 0}
		_, err := store.CreateBook(ctx, b)
		is.NoErr(err)

		books, err := store.SearchBooks(ctx, "%%")
		is.NoErr(err)
		is.Equal(len(books), 2)
		is.Equal(books[1], b)
	})
}

func TestListBookIDs(t *testing.T) {
	t.Cleanup(func() {
		teardownDB(t)
	})

	t.Run("lists nothing on an empty table", func(t *testing.T) {
		is := is.New(t)

		ids, err := store.ListBookIDs(ctx)
		is.NoErr(err)
		is.Equal(ids, []int{})
	})

	t.Run("lists ids in ascending order whatever the insertion order", func(t *testing.T) {
		is := is.New(t)

		for _, id := range []int{4, 1, 2} {
			_, err := store.CreateBook(ctx, book.Book{ID: id, Title: fmt.Sprintf("Book number %d", id), Author: "A", Year: 2000})
			is.NoErr(err)
		}

		ids, err := store.ListBookIDs(ctx)
		is.NoErr(err)
		is.Equal(ids, []int{1, 2, 4})
		is.Equal(book.NextID(ids), 3)
	})
}

func TestListBooks(t *testing.T) {
	t.Cleanup(func() {
		teardownDB(t)
	})

	t.Run("list books without errors even if there is no books in the database", func(t *testing.T) {
		is := is.New(t)

		returnedBooks, err := store.ListBooks(ctx)
		is.NoErr(err)
		is.Equal(returnedBooks, []book.Book{})
	})

	t.Run("lists all books ordered by id", func(t *testing.T) {
		is := is.New(t)

		var testBookslist []book.Book
		listSize := 10
		for i := listSize; i > 0; i-- {
			b := book.Book{ID: i, Title: fmt.Sprintf("Book number %06v", i), Author: "Author", Year: 1900 + i}
			_, err := store.CreateBook(ctx, b)
			is.NoErr(err)
			testBookslist = append([]book.Book{b}, testBookslist...)
		}

		returnedBooks, err := store.ListBooks(ctx)
		is.NoErr(err)
		is.Equal(returnedBooks, testBookslist)
	})
}

func TestCountBooksByID(t *testing.T) {
	t.Cleanup(func() {
		teardownDB(t)
	})

	is := is.New(t)

	_, err := store.CreateBook(ctx, book.Book{ID: 5, Title: "Counted", Author: "Counter", Year: 1999})
	is.NoErr(err)

	count, err := store.CountBooksByID(ctx, 5)
	is.NoErr(err)
	is.Equal(count, 1)

	count, err = store.CountBooksByID(ctx, 6)
	is.NoErr(err)
	is.Equal(count, 0)
}

func TestUpdateBook(t *testing.T) {
	t.Cleanup(func() {
		teardownDB(t)
	})

	t.Run("updates a book without errors", func(t *testing.T) {
		is := is.New(t)

		b := book.Book{ID: 1, Title: "A new book to be updated", Author: "Old author", Year: 1950}
		_, err := store.CreateBook(ctx, b)
		is.NoErr(err)

		b.Title = "The book is now updated"
		b.Author = "New author"
		b.Year = 1951
		err = store.UpdateBook(ctx, b)
		is.NoErr(err)

		books, err := store.ListBooks(ctx)
		is.NoErr(err)
		is.Equal(books, []book.Book{b})
	})

	t.Run("updating a non existing book leaves the table unchanged", func(t *testing.T) {
		is := is.New(t)

		before, err := store.ListBooks(ctx)
		is.NoErr(err)

		err = store.UpdateBook(ctx, book.Book{ID: 77, Title: "Ghost", Author: "Nobody", Year: 1})
		is.NoErr(err)

		after, err := store.ListBooks(ctx)
		is.NoErr(err)
		is.Equal(before, after)
	})
}

func TestDeleteBook(t *testing.T) {
	t.Cleanup(func() {
		teardownDB(t)
	})

	t.Run("deletes a book without errors", func(t *testing.T) {
		is := is.New(t)

		_, err := store.CreateBook(ctx, book.Book{ID: 1, Title: "Doomed", Author: "X", Year: 2000})
		is.NoErr(err)
		_, err = store.CreateBook(ctx, book.Book{ID: 2, Title: "Survivor", Author: "Y", Year: 2001})
		is.NoErr(err)

		rows, err := store.DeleteBook(ctx, 1)
		is.NoErr(err)
		is.Equal(rows, int64(1))

		books, err := store.ListBooks(ctx)
		is.NoErr(err)
		is.Equal(books, []book.Book{{ID: 2, Title: "Survivor", Author: "Y", Year: 2001}})
	})

	t.Run("deleting a non existing book affects no rows", func(t *testing.T) {
		is := is.New(t)

		for i := 0; i < 2; i++ {
			rows, err := store.DeleteBook(ctx, 1)
			is.NoErr(err)
			is.Equal(rows, int64(0))
		}

		count, err := store.CountBooksByID(ctx, 2)
		is.NoErr(err)
		is.Equal(count, 1)
	})
}

func TestSearchBooks(t *testing.T) {
	t.Cleanup(func() {
		teardownDB(t)
	})

	is := is.New(t)
	hobbit := book.Book{ID: 1, Title: "The Hobbit", Author: "J.R.R. Tolkien", Year: 1937}
	dune := book.Book{ID: 2, Title: "Dune", Author: "Frank Herbert", Year: 1965}
	for _, b := range []book.Book{hobbit, dune} {
		_, err := store.CreateBook(ctx, b)
		is.NoErr(err)
	}

	t.Run("matches title and author substrings ignoring case", func(t *testing.T) {
		is := is.New(t)

		for _, pattern := range []string{"%hobbit%", "%HOBBIT%", "%tolkien%", "%ToLkIeN%"} {
			books, err := store.SearchBooks(ctx, pattern)
			is.NoErr(err)
			is.Equal(books, []book.Book{hobbit})
		}
	})

	t.Run("no matches returns an empty list", func(t *testing.T) {
		is := is.New(t)

		books, err := store.SearchBooks(ctx, "%asimov%")
		is.NoErr(err)
		is.Equal(books, []book.Book{})
	})

	t.Run("wildcards in the term act as a pattern", func(t *testing.T) {
		is := is.New(t)

		books, err := store.SearchBooks(ctx, "%d_ne%")
		is.NoErr(err)
		is.Equal(books, []book.Book{dune})
	})

	t.Run("case is ignored for non ASCII letters too", func(t *testing.T) {
		is := is.New(t)

		ecole := book.Book{ID: 3, Title: "ÉCOLE DES FEMMES", Author: "Molière", Year: 1662}
		_, err := store.CreateBook(ctx, ecole)
		is.NoErr(err)

		for _, pattern := range []string{"%école%", "%MOLIÈRE%"} {
			books, err := store.SearchBooks(ctx, pattern)
			is.NoErr(err)
			is.Equal(books, []book.Book{ecole})
		}
	})
}

func teardownDB(t *testing.T) {
	is := is.New(t)

	// Cleaning up all the records.
	_, err := sqlDB.Exec(`DELETE FROM books`)
	is.NoErr(err)
}

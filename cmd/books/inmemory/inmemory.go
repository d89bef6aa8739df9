package inmemory

import (
	"context"
	"fmt"
	"sort"

	"github.com/books-manager/cmd/books/book"
	"github.com/hashicorp/go-memdb"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
)

type InMemoryStore struct {
	db *memdb.MemDB
}

func NewInMemoryStore() (*InMemoryStore, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			"book": {
				Name: "book",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "ID"},
					},
				},
			},
		},
	}

	errV := schema.Validate()
	if errV != nil {
		log.Error().Err(errV).Msg("schema validating error")
	}

	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize in-memory database: %w", err)
	}
	return &InMemoryStore{db: db}, nil
}

// AdaptedBook keeps case-folded copies of the searchable columns next to the row.
type AdaptedBook struct {
	ID           int
	Title        string
	Author       string
	Year         int
	FoldedTitle  string
	FoldedAuthor string
}

func adaptBook(bookEntry book.Book) AdaptedBook {
	fold := cases.Fold()
	return AdaptedBook{
		ID:           bookEntry.ID,
		Title:        bookEntry.Title,
		Author:       bookEntry.Author,
		Year:         bookEntry.Year,
		FoldedTitle:  fold.String(bookEntry.Title),
		FoldedAuthor: fold.String(bookEntry.Author),
	}
}

func (adptBook AdaptedBook) toBook() book.Book {
	return book.Book{
		ID:     adptBook.ID,
		Title:  adptBook.Title,
		Author: adptBook.Author,
		Year:   adptBook.Year,
	}
}

func (store *InMemoryStore) ListBookIDs(ctx context.Context) ([]int, error) {
	books, err := store.scan(func(AdaptedBook) bool { return true })
	if err != nil {
		return nil, fmt.Errorf("listing book ids from db: %w", err)
	}

	ids := make([]int, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID)
	}
	return ids, nil
}

/* Inserts the book. An id already in use is rejected, like the primary key of the SQL table. */
func (store *InMemoryStore) CreateBook(ctx context.Context, bookEntry book.Book) (int64, error) {
	txn := store.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First("book", "id", bookEntry.ID)
	if err != nil {
		return 0, fmt.Errorf("storing book on db: %w", err)
	}
	if raw != nil {
		return 0, fmt.Errorf("storing book on db: id %d already in use", bookEntry.ID)
	}

	if err := txn.Insert("book", adaptBook(bookEntry)); err != nil {
		return 0, fmt.Errorf("storing book on db: %w", err)
	}

	txn.Commit()
	return 1, nil
}

func (store *InMemoryStore) ListBooks(ctx context.Context) ([]book.Book, error) {
	books, err := store.scan(func(AdaptedBook) bool { return true })
	if err != nil {
		return nil, fmt.Errorf("listing books from db: %w", err)
	}
	return books, nil
}

func (store *InMemoryStore) CountBooksByID(ctx context.Context, id int) (int, error) {
	txn := store.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First("book", "id", id)
	if err != nil {
		return 0, fmt.Errorf("counting books from db: %w", err)
	}
	if raw == nil {
		return 0, nil
	}
	return 1, nil
}

/* Overwrites title, author and year. A missing id is a no-op, as an UPDATE matching no rows. */
func (store *InMemoryStore) UpdateBook(ctx context.Context, bookEntry book.Book) error {
	txn := store.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First("book", "id", bookEntry.ID)
	if err != nil {
		return fmt.Errorf("updating on db: %w", err)
	}
	if raw == nil {
		return nil
	}

	if err := txn.Insert("book", adaptBook(bookEntry)); err != nil {
		return fmt.Errorf("updating on db: %w", err)
	}

	txn.Commit()
	return nil
}

func (store *InMemoryStore) DeleteBook(ctx context.Context, id int) (int64, error) {
	txn := store.db.Txn(true)
	defer txn.Abort()

	count, err := txn.DeleteAll("book", "id", id)
	if err != nil {
		return 0, fmt.Errorf("deleting book from db: %w", err)
	}

	txn.Commit()
	return int64(count), nil
}

/* Matches the LIKE pattern against folded title and author. */
func (store *InMemoryStore) SearchBooks(ctx context.Context, pattern string) ([]book.Book, error) {
	folded := cases.Fold().String(pattern)
	books, err := store.scan(func(b AdaptedBook) bool {
		return like(folded, b.FoldedTitle) || like(folded, b.FoldedAuthor)
	})
	if err != nil {
		return nil, fmt.Errorf("searching books on db: %w", err)
	}
	return books, nil
}

// scan returns the rows accepted by keep, ordered by id.
func (store *InMemoryStore) scan(keep func(AdaptedBook) bool) ([]book.Book, error) {
	txn := store.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get("book", "id")
	if err != nil {
		return nil, err
	}

	books := []book.Book{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		b := obj.(AdaptedBook)
		if !keep(b) {
			continue
		}
		books = append(books, b.toBook())
	}

	sort.Slice(books, func(i, j int) bool {
		return books[i].ID < books[j].ID
	})
	return books, nil
}

// like reports whether s matches pattern, where % matches any run of
// characters and _ matches exactly one.
func like(pattern, s string) bool {
	p := []rune(pattern)
	r := []rune(s)

	pi, si := 0, 0
	star, mark := -1, 0
	for si < len(r) {
		switch {
		case pi < len(p) && p[pi] == '%':
			star = pi
			mark = si
			pi++
		case pi < len(p) && (p[pi] == '_' || p[pi] == r[si]):
			pi++
			si++
		case star != -1:
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}
	for pi < len(p) && p[pi] == '%' {
		pi++
	}
	return pi == len(p)
}

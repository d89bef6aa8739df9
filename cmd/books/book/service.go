package book

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

//go:generate mockgen -source=service.go -destination=mocks/service_mock.go -package=mocks

type Repository interface {
	ListBookIDs(ctx context.Context) ([]int, error)
	CreateBook(ctx context.Context, bookEntry Book) (int64, error)
	ListBooks(ctx context.Context) ([]Book, error)
	CountBooksByID(ctx context.Context, id int) (int, error)
	UpdateBook(ctx context.Context, bookEntry Book) error
	DeleteBook(ctx context.Context, id int) (int64, error)
	SearchBooks(ctx context.Context, pattern string) ([]Book, error)
}

type Notifier interface {
	BookAdded(ctx context.Context, id int, title string) error
	BookDeleted(ctx context.Context, id int) error
}

type Service struct {
	repo                 Repository
	notifier             Notifier
	notificationsTimeout time.Duration
}

/* Creates a service over repo. notifier may be nil, in which case no notifications are sent. */
func NewService(repo Repository, notifier Notifier, notificationsTimeout time.Duration) *Service {
	return &Service{
		repo:                 repo,
		notifier:             notifier,
		notificationsTimeout: notificationsTimeout,
	}
}

/* Returns the lowest positive integer not used as an id in ids, which must be sorted ascending. */
func NextID(ids []int) int {
	expected := 1
	for _, id := range ids {
		if id != expected {
			return expected
		}
		expected++
	}
	return expected
}

/* Computes the smallest unused positive id, reusing ids freed by deletions. */
func (s *Service) AllocateID(ctx context.Context) (int, error) {
	ids, err := s.repo.ListBookIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("allocating book id: %w", err)
	}
	return NextID(ids), nil
}

func (s *Service) AddBook(ctx context.Context, req AddBookRequest) (Book, error) {
	if err := req.Validate(); err != nil {
		return Book{}, fmt.Errorf("adding book: %w", err)
	}

	id, err := s.AllocateID(ctx)
	if err != nil {
		return Book{}, fmt.Errorf("adding book: %w", err)
	}

	newBook := Book{
		ID:     id,
		Title:  req.Title,
		Author: req.Author,
		Year:   req.Year,
	}

	rows, err := s.repo.CreateBook(ctx, newBook)
	if err != nil {
		return Book{}, fmt.Errorf("adding book: %w", err)
	}
	if rows == 0 {
		return Book{}, fmt.Errorf("adding book: %w", ErrResponseBookNotInserted)
	}

	if s.notifier != nil {
		nctx, cancel := context.WithTimeout(ctx, s.notificationsTimeout)
		defer cancel()
		if err := s.notifier.BookAdded(nctx, newBook.ID, newBook.Title); err != nil {
			log.Warn().Err(err).Int("book_id", newBook.ID).Msg("notifying book added")
		}
	}

	return newBook, nil
}

func (s *Service) ListBooks(ctx context.Context) ([]Book, error) {
	books, err := s.repo.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	return books, nil
}

func (s *Service) BookExists(ctx context.Context, id int) (bool, error) {
	count, err := s.repo.CountBooksByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("checking book %d: %w", id, err)
	}
	return count > 0, nil
}

/* Overwrites title, author and year of an existing book. The id is never changed. */
func (s *Service) UpdateBook(ctx context.Context, req UpdateBookRequest) (Book, error) {
	if err := req.Validate(); err != nil {
		return Book{}, fmt.Errorf("updating book: %w", err)
	}

	exists, err := s.BookExists(ctx, req.ID)
	if err != nil {
		return Book{}, fmt.Errorf("updating book: %w", err)
	}
	if !exists {
		return Book{}, fmt.Errorf("updating book %d: %w", req.ID, ErrResponseBookNotFound)
	}

	updatedBook := Book{
		ID:     req.ID,
		Title:  req.Title,
		Author: req.Author,
		Year:   req.Year,
	}
	if err := s.repo.UpdateBook(ctx, updatedBook); err != nil {
		return Book{}, fmt.Errorf("updating book: %w", err)
	}

	return updatedBook, nil
}

func (s *Service) DeleteBook(ctx context.Context, id int) error {
	rows, err := s.repo.DeleteBook(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("deleting book %d: %w", id, ErrResponseBookNotFound)
	}

	if s.notifier != nil {
		nctx, cancel := context.WithTimeout(ctx, s.notificationsTimeout)
		defer cancel()
		if err := s.notifier.BookDeleted(nctx, id); err != nil {
			log.Warn().Err(err).Int("book_id", id).Msg("notifying book deleted")
		}
	}

	return nil
}

/* Finds books whose title or author contains term, ignoring case. Wildcards in term are passed through to the storage pattern. */
func (s *Service) SearchBooks(ctx context.Context, term string) ([]Book, error) {
	pattern := fmt.Sprint("%", strings.TrimSpace(term), "%")

	books, err := s.repo.SearchBooks(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("searching books: %w", err)
	}
	return books, nil
}

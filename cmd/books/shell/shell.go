package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/books-manager/cmd/books/book"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type BookService interface {
	AddBook(ctx context.Context, req book.AddBookRequest) (book.Book, error)
	ListBooks(ctx context.Context) ([]book.Book, error)
	BookExists(ctx context.Context, id int) (bool, error)
	UpdateBook(ctx context.Context, req book.UpdateBookRequest) (book.Book, error)
	DeleteBook(ctx context.Context, id int) error
	SearchBooks(ctx context.Context, term string) ([]book.Book, error)
}

const (
	choiceAdd = iota + 1
	choiceViewAll
	choiceUpdate
	choiceDelete
	choiceSearch
	choiceExit
)

type Shell struct {
	service BookService
	in      Input
	out     io.Writer
	logger  zerolog.Logger
}

func New(service BookService, in Input, out io.Writer) *Shell {
	return &Shell{
		service: service,
		in:      in,
		out:     out,
		logger:  log.With().Str("session", uuid.NewString()).Logger(),
	}
}

/* Runs the menu loop until the user exits or input ends. Storage failures abort only the current operation. */
func (s *Shell) Run(ctx context.Context) error {
	s.logger.Info().Msg("session started")
	for {
		s.printMenu()

		choice, err := s.readChoice()
		if err == nil {
			switch choice {
			case choiceAdd:
				err = s.addBook(ctx)
			case choiceViewAll:
				err = s.viewAllBooks(ctx)
			case choiceUpdate:
				err = s.updateBook(ctx)
			case choiceDelete:
				err = s.deleteBook(ctx)
			case choiceSearch:
				err = s.searchBooks(ctx)
			case choiceExit:
				s.println("\nExiting...")
				s.logger.Info().Msg("session ended")
				return nil
			default:
				s.println("\nInvalid choice. Please enter again.\n")
			}
		}

		if errors.Is(err, io.EOF) {
			s.println("\nExiting...")
			s.logger.Info().Msg("input closed, session ended")
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
	}
}

func (s *Shell) printMenu() {
	s.println("\n----- Menu -----\n")
	s.println("1. Add a Book")
	s.println("2. View All Books")
	s.println("3. Update a Book")
	s.println("4. Delete a Book")
	s.println("5. Search for a Book")
	s.println("6. Exit\n")
}

func (s *Shell) readChoice() (int, error) {
	for {
		line, err := s.prompt("Enter your choice: ")
		if err != nil {
			return 0, err
		}
		choice, err := strconv.Atoi(strings.TrimSpace(line))
		if err == nil {
			return choice, nil
		}
		s.println("\nInvalid choice. Please enter a number.\n")
	}
}

func (s *Shell) readID(label, invalid string) (int, error) {
	for {
		line, err := s.prompt(label)
		if err != nil {
			return 0, err
		}
		id, err := book.ParseID(line)
		if err == nil {
			return id, nil
		}
		s.println(invalid)
	}
}

func (s *Shell) readYear() (int, error) {
	for {
		line, err := s.prompt("Enter publication year: ")
		if err != nil {
			return 0, err
		}
		year, err := book.ParseYear(line)
		if err == nil {
			return year, nil
		}
		s.println("\nInvalid year. " + err.Error())
	}
}

func (s *Shell) addBook(ctx context.Context) error {
	s.println("\n----- Add a Book -----\n")
	title, err := s.prompt("Enter book title: ")
	if err != nil {
		return err
	}
	author, err := s.prompt("Enter book author: ")
	if err != nil {
		return err
	}
	year, err := s.readYear()
	if err != nil {
		return err
	}

	created, err := s.service.AddBook(ctx, book.AddBookRequest{Title: title, Author: author, Year: year})
	if err != nil {
		if errors.Is(err, book.ErrResponseBookNotInserted) {
			s.println("\nThe book could not be added.")
			return nil
		}
		s.operationFailed("add", err)
		return nil
	}

	s.println("\nA new book was added successfully!")
	s.println(fmt.Sprintf("Book ID: %d", created.ID))
	s.logger.Info().Int("book_id", created.ID).Msg("book added")
	return nil
}

func (s *Shell) viewAllBooks(ctx context.Context) error {
	s.println("\n----- View All Books -----\n")
	books, err := s.service.ListBooks(ctx)
	if err != nil {
		s.operationFailed("view all", err)
		return nil
	}

	if len(books) == 0 {
		s.println("No books found in the library!")
		return nil
	}
	s.printBooks(books)
	return nil
}

func (s *Shell) updateBook(ctx context.Context) error {
	s.println("\n----- Update a Book -----\n")
	id, err := s.readID("Enter book ID to update: ", "\nInvalid input. Please enter a valid numerical ID.\n")
	if err != nil {
		return err
	}

	exists, err := s.service.BookExists(ctx, id)
	if err != nil {
		s.operationFailed("update", err)
		return nil
	}
	if !exists {
		s.println(fmt.Sprintf("\nNo book found with ID %d", id))
		return nil
	}

	title, err := s.prompt("Enter new title: ")
	if err != nil {
		return err
	}
	author, err := s.prompt("Enter new author: ")
	if err != nil {
		return err
	}
	year, err := s.readYear()
	if err != nil {
		return err
	}

	_, err = s.service.UpdateBook(ctx, book.UpdateBookRequest{ID: id, Title: title, Author: author, Year: year})
	if err != nil {
		if errors.Is(err, book.ErrResponseBookNotFound) {
			s.println(fmt.Sprintf("\nNo book found with ID %d", id))
			return nil
		}
		s.operationFailed("update", err)
		return nil
	}

	s.println("\nBook updated successfully!")
	s.logger.Info().Int("book_id", id).Msg("book updated")
	return nil
}

func (s *Shell) deleteBook(ctx context.Context) error {
	s.println("\n----- Delete a Book -----\n")
	id, err := s.readID("Enter book ID to delete: ", "\nInvalid input. Please enter a valid integer for the book ID.\n")
	if err != nil {
		return err
	}

	err = s.service.DeleteBook(ctx, id)
	if err != nil {
		if errors.Is(err, book.ErrResponseBookNotFound) {
			s.println(fmt.Sprintf("\nNo book found with ID %d", id))
			return nil
		}
		s.operationFailed("delete", err)
		return nil
	}

	s.println("\nBook deleted successfully!")
	s.logger.Info().Int("book_id", id).Msg("book deleted")
	return nil
}

func (s *Shell) searchBooks(ctx context.Context) error {
	s.println("\n----- Search for a Book -----\n")
	line, err := s.prompt("Enter title or author name: ")
	if err != nil {
		return err
	}
	term := strings.TrimSpace(line)

	books, err := s.service.SearchBooks(ctx, term)
	if err != nil {
		s.operationFailed("search", err)
		return nil
	}

	if len(books) == 0 {
		s.println("\nNo books found with \"" + term + "\" in title or author.")
		return nil
	}
	s.printBooks(books)
	return nil
}

func (s *Shell) printBooks(books []book.Book) {
	for _, b := range books {
		fmt.Fprintf(s.out, "ID: %d\nTitle: %s\nAuthor: %s\nYear: %d\n\n", b.ID, b.Title, b.Author, b.Year)
	}
}

func (s *Shell) operationFailed(operation string, err error) {
	s.logger.Error().Err(err).Str("operation", operation).Msg("operation failed")
	s.println(fmt.Sprintf("\nOperation failed: %v", err))
}

func (s *Shell) prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	return s.in.ReadLine()
}

func (s *Shell) println(line string) {
	fmt.Fprintln(s.out, line)
}

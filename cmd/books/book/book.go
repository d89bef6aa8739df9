package book

import (
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type Book struct {
	ID     int
	Title  string
	Author string
	Year   int
}

// YearMaxDigits bounds the length of the decimal form of a year, sign included.
const YearMaxDigits = 4

type AddBookRequest struct {
	Title  string
	Author string
	Year   int
}

func (r AddBookRequest) Validate() error {
	return ValidateYear(r.Year)
}

type UpdateBookRequest struct {
	ID     int
	Title  string
	Author string
	Year   int
}

func (r UpdateBookRequest) Validate() error {
	if err := validation.Validate(r.ID, validation.Min(0)); err != nil {
		return ErrResponseIDInvalid
	}
	return ValidateYear(r.Year)
}

/* Checks the year against the digit-count rule. The rule is applied to the string form, so "-999" passes and "-1000" does not. */
func ValidateYear(year int) error {
	err := validation.Validate(strconv.Itoa(year), validation.Length(1, YearMaxDigits))
	if err != nil {
		return ErrResponseYearTooLong
	}
	return nil
}

/* Parses raw user input into a year, rejecting non-integers and years longer than four characters. */
func ParseYear(raw string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrResponseYearNotNumeric
	}

	if err := ValidateYear(year); err != nil {
		return 0, err
	}
	return year, nil
}

/* Parses raw user input into a book id. Only non-negative integers fitting the INTEGER column are accepted. */
func ParseID(raw string) (int, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
	if err != nil || id < 0 {
		return 0, ErrResponseIDInvalid
	}
	return int(id), nil
}

package shell

import (
	"bufio"
	"io"
)

// Input yields one line of user input at a time. io.EOF ends the session.
type Input interface {
	ReadLine() (string, error)
}

type lineInput struct {
	scanner *bufio.Scanner
}

func NewLineInput(r io.Reader) Input {
	return &lineInput{scanner: bufio.NewScanner(r)}
}

func (in *lineInput) ReadLine() (string, error) {
	if in.scanner.Scan() {
		return in.scanner.Text(), nil
	}
	if err := in.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

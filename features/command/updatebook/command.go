package updatebook

import (
	"time"

	"github.com/librisys/loanservice/core"
)

// Command represents the intent to rewrite a book's catalog fields and
// loan-state flags.
type Command struct {
	BookID     core.BookID
	Title      string
	ISBN       core.ISBN
	IsReserved bool
	IsBorrowed bool
	ReturnDate *time.Time
}

// CommandType returns the type identifier for this command.
func (c Command) CommandType() string {
	return "UpdateBook"
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(bookID core.BookID, title string, isbn core.ISBN, isReserved bool, isBorrowed bool, returnDate *time.Time) Command {
	return Command{
		BookID:     bookID,
		Title:      title,
		ISBN:       isbn,
		IsReserved: isReserved,
		IsBorrowed: isBorrowed,
		ReturnDate: returnDate,
	}
}

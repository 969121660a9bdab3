package createreservation

import (
	"github.com/librisys/loanservice/core"
)

// Command represents the intent of a customer to place a hold on a book.
type Command struct {
	BookID     core.BookID
	CustomerID core.CustomerID
}

// CommandType returns the type identifier for this command.
func (c Command) CommandType() string {
	return "CreateReservation"
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(bookID core.BookID, customerID core.CustomerID) Command {
	return Command{
		BookID:     bookID,
		CustomerID: customerID,
	}
}

package createnotification

import (
	"github.com/librisys/loanservice/core"
)

// Command represents the intent of a customer to be told when a book
// becomes available.
type Command struct {
	BookID     core.BookID
	CustomerID core.CustomerID
}

// CommandType returns the type identifier for this command.
func (c Command) CommandType() string {
	return "CreateNotification"
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(bookID core.BookID, customerID core.CustomerID) Command {
	return Command{
		BookID:     bookID,
		CustomerID: customerID,
	}
}

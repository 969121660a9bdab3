package deletebook

import (
	"github.com/librisys/loanservice/core"
)

// Command represents the intent to remove a book from the catalog.
type Command struct {
	BookID core.BookID
}

// CommandType returns the type identifier for this command.
func (c Command) CommandType() string {
	return "DeleteBook"
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(bookID core.BookID) Command {
	return Command{BookID: bookID}
}

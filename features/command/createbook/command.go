package createbook

import (
	"github.com/librisys/loanservice/core"
)

// Command represents the intent to add a book to the catalog.
type Command struct {
	Title string
	ISBN  core.ISBN
}

// CommandType returns the type identifier for this command.
func (c Command) CommandType() string {
	return "CreateBook"
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(title string, isbn core.ISBN) Command {
	return Command{
		Title: title,
		ISBN:  isbn,
	}
}

// Package createbook implements the use case of adding a book to the
// catalog, guarding ISBN uniqueness before the insert is staged.
package createbook

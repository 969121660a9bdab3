// Package updatebook implements the use case of rewriting a book's catalog
// fields and loan-state flags. An update that leaves the book available
// raises BookAvailable.
package updatebook

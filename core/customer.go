package core

// Customer is the contact record resolved through the identity collaborator.
type Customer struct {
	ID        CustomerID
	FirstName string
	LastName  string
	Email     string
}

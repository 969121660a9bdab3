package core

// Notification is a customer's request to be told when a book becomes
// available. IsNotified flips to true only after a message was actually
// delivered; until then the subscription stays eligible for the next sweep.
type Notification struct {
	EntityMeta
	BookID     BookID
	CustomerID CustomerID
	IsNotified bool
}

// MarkNotified returns a copy of the subscription flagged as delivered.
func MarkNotified(n Notification) Notification {
	n.IsNotified = true
	return n
}

package application

// Command is a ledger operation that changes state. Its name labels the
// invocation in logs.
type Command interface {
	CommandName() string
}

// Query reads ledger state without changing it.
type Query interface {
	QueryName() string
}

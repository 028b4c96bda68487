package domain

// An unresolved user input: a free-text place name, an optional literal
// address, and a stable identifier. Created by the caller, handed to the
// resolver, consumed by the optimizer once resolved.
type Query struct {
	ID      string
	Name    string
	Address string
}

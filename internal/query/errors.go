package query

import "errors"

var (
	// ErrEmptyQuery is returned by EntryPoints for a blank query.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrNoSeeds is returned by Subgraph when no usable seed id is given.
	ErrNoSeeds = errors.New("at least one seed id is required")

	// ErrInvalidArgument wraps rejected kinds and directions.
	ErrInvalidArgument = errors.New("invalid argument")
)

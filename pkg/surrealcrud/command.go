package surrealcrud

// Command represents a discrete application operation with its specific configuration.
//
// Commands are created by [Parse] and dispatched by [Main] to the matching method on
// [App] (App.Run, App.Migrate).
type Command interface {
	// Name returns the sub-command that selects this operation on the command line.
	Name() string
}

// MigrateCommand prepares the backend for the resource collections and exits.
//
// What preparation means depends on the backend: SurrealDB defines the tables, MongoDB
// creates the collections, PostgreSQL creates the documents table, and the memory
// store does nothing. Running it twice is harmless.
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string {
	return "migrate"
}

// RunCommand starts the HTTP server and blocks until its context is cancelled.
type RunCommand struct {
	// Port is the TCP port to listen on.
	Port int
}

func (c *RunCommand) Name() string {
	return "run"
}

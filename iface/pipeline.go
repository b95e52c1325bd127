package iface

// Pipeline wraps an ordered sequence of commands to be processed
// in a single MULTI/EXEC exchange on one connection.
type Pipeline interface {
	// Add will attach a command to this pipeline. This command is
	// not sent to the remote server until Run is invoked.
	Add(command string, args ...interface{})

	// Run will send all commands attached to this pipeline and
	// return a slice of the results of each command.
	Run() (interface{}, error)
}

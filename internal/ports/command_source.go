package ports

import "github.com/harborlabs/dockscale/internal/domain"

// CommandSource delivers operator commands to the agent loop.
type CommandSource interface {
	// Commands returns the channel commands arrive on. The channel is
	// closed when the source shuts down; a closed channel disables
	// command handling without stopping the loop.
	Commands() <-chan domain.Command

	// Close stops the source and closes the command channel.
	Close() error
}

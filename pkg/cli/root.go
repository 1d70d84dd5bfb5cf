package cli

import (
	"github.com/spf13/cobra"

	internalcli "github.com/SmitUplenchwar2687/tsmr/internal/cli"
)

// ExitError carries a stage's exit status out of a command.
type ExitError = internalcli.ExitError

// NewRootCmd creates the public tsmr root command for embedding.
func NewRootCmd() *cobra.Command {
	return internalcli.NewRootCmd()
}

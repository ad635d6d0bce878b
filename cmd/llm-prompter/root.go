// Package llmprompter wires the llm-prompter command line.
package llmprompter

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	command := &cobra.Command{
		Use:           rootCommandUse,
		Short:         rootCommandShort,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	command.PersistentFlags().String(configFlagName, "", configFlagUsage)
	command.PersistentFlags().String(logLevelFlagName, "", logLevelFlagUsage)
	command.PersistentFlags().String(apiKeyFlagName, "", apiKeyFlagUsage)

	command.AddCommand(newRunCommand(), newListCommand(), newInitCommand())
	return command
}

// Execute runs the command line and returns the first error.
func Execute() error {
	return newRootCommand().Execute()
}

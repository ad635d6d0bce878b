package llmprompter

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/temirov/llm-prompter/internal/config"
	"github.com/temirov/llm-prompter/internal/fsops"
	"github.com/temirov/llm-prompter/internal/templates"
)

func newInitCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   initCommandUse,
		Short: initCommandShort,
	}
	command.AddCommand(newInitConfigCommand(), newInitPromptCommand())
	return command
}

func newInitConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   initConfigCommandUse,
		Short: initConfigCommandShort,
		Args:  cobra.ExactArgs(initArgsCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeStarterFile(cmd, filepath.Join(args[0], configTemplateFileName), config.RenderTemplate)
		},
	}
}

func newInitPromptCommand() *cobra.Command {
	var jsonResponse bool
	command := &cobra.Command{
		Use:   initPromptCommandUse,
		Short: initPromptCommandShort,
		Args:  cobra.ExactArgs(initArgsCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeStarterFile(cmd, filepath.Join(args[0], promptTemplateFileName), func() ([]byte, error) {
				return templates.RenderSample(jsonResponse)
			})
		},
	}
	registerBoolChoiceFlag(command.Flags(), &jsonResponse, jsonFlagName, jsonFlagUsage)
	return command
}

func writeStarterFile(command *cobra.Command, targetPath string, render func() ([]byte, error)) error {
	content, renderErr := render()
	if renderErr != nil {
		return fmt.Errorf(renderTemplateErrorFormat, targetPath, renderErr)
	}
	ops := fsops.NewOps(fsops.NewOS())
	if writeErr := ops.WriteText(targetPath, string(content)); writeErr != nil {
		return fmt.Errorf(writeTemplateErrorFormat, targetPath, writeErr)
	}
	if _, printErr := fmt.Fprintln(command.OutOrStdout(), targetPath); printErr != nil {
		return fmt.Errorf(writeOutputErrorFormat, printErr)
	}
	return nil
}

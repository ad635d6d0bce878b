package llmprompter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/llm-prompter/internal/fsops"
	"github.com/temirov/llm-prompter/internal/pipeline"
	"github.com/temirov/llm-prompter/internal/templates"
	"github.com/temirov/llm-prompter/internal/transform"
)

const (
	dashPlaceholder   = "-"
	listPreviewLength = 60
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   listCommandUse,
		Short: listCommandShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListCommand(cmd)
		},
	}
}

func runListCommand(command *cobra.Command) error {
	settings, settingsErr := resolveSettings(command)
	if settingsErr != nil {
		return settingsErr
	}
	rootConfiguration, configurationReference, loadErr := loadRootConfiguration(settings)
	if loadErr != nil {
		return loadErr
	}
	templateSet, templatesErr := templates.Load(fsops.NewOps(fsops.NewOS()), rootConfiguration.Prompt.TemplateFile)
	if templatesErr != nil {
		return fmt.Errorf(loadTemplatesErrorFormat, templatesErr)
	}

	var lines []string
	lines = append(lines,
		fmt.Sprintf("config\t%s", configurationReference),
		fmt.Sprintf("mode\t%s", pipeline.ModeFor(templateSet)),
	)
	for _, item := range templateSet.Items {
		lines = append(lines, fmt.Sprintf("item %s\tmodel=%s convert=%s\t%s",
			item.Label(),
			dashIfEmpty(item.Prompt.LLM.Model),
			preview(item.Prompt.ConvertScript()),
			preview(item.Prompt.User),
		))
	}
	transformNames := transform.Names()
	sort.Strings(transformNames)
	lines = append(lines, fmt.Sprintf("transforms\t%s", strings.Join(transformNames, " ")))

	outputWriter := command.OutOrStdout()
	for _, line := range lines {
		if _, writeErr := fmt.Fprintln(outputWriter, line); writeErr != nil {
			return fmt.Errorf(writeOutputErrorFormat, writeErr)
		}
	}
	return nil
}

func preview(text string) string {
	firstLine, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	runes := []rune(firstLine)
	if len(runes) > listPreviewLength {
		return string(runes[:listPreviewLength]) + "…"
	}
	return dashIfEmpty(firstLine)
}

func dashIfEmpty(value string) string {
	if strings.TrimSpace(value) == "" {
		return dashPlaceholder
	}
	return value
}

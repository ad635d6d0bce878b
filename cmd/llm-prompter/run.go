package llmprompter

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/llm-prompter/internal/config"
	"github.com/temirov/llm-prompter/internal/fsops"
	"github.com/temirov/llm-prompter/internal/hashstore"
	"github.com/temirov/llm-prompter/internal/llm"
	"github.com/temirov/llm-prompter/internal/logging"
	"github.com/temirov/llm-prompter/internal/pipeline"
	"github.com/temirov/llm-prompter/internal/templates"
	"github.com/temirov/llm-prompter/internal/transform"
)

// scriptTimeout bounds a single interpreted conversion script.
const scriptTimeout = 10 * time.Second

type runCommandOptions struct {
	force bool
}

func newRunCommand() *cobra.Command {
	options := &runCommandOptions{}

	command := &cobra.Command{
		Use:   runCommandUse,
		Short: runCommandShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromptCommand(cmd, *options)
		},
	}
	registerBoolChoiceFlag(command.Flags(), &options.force, forceFlagName, forceFlagUsage)
	return command
}

func runPromptCommand(command *cobra.Command, options runCommandOptions) error {
	settings, settingsErr := resolveSettings(command)
	if settingsErr != nil {
		return settingsErr
	}
	rootConfiguration, configurationReference, loadErr := loadRootConfiguration(settings)
	if loadErr != nil {
		return loadErr
	}

	startedAt := time.Now()
	logger, closeLog, loggerErr := logging.New(rootConfiguration.Log, uuid.NewString(), startedAt)
	if loggerErr != nil {
		return fmt.Errorf(loggerInitializationErrorFormat, loggerErr)
	}
	defer func() {
		_ = logger.Sync()
		_ = closeLog()
	}()
	logger.Info("APP START",
		zap.String("config", configurationReference),
		zap.String("provider", rootConfiguration.AI.Kind),
		zap.String("model", rootConfiguration.AI.Model),
	)

	ops := fsops.NewOps(fsops.NewOS())
	driver, driverErr := buildDriver(rootConfiguration, ops, &http.Client{}, logger)
	if driverErr != nil {
		logger.Error("APP STOP", zap.Error(driverErr))
		return driverErr
	}
	driver.Force = options.force

	stats, runErr := driver.Run(command.Context())
	logger.Info("APP STOP", zap.Duration("elapsed", time.Since(startedAt)))
	if runErr != nil {
		return fmt.Errorf(runPipelineErrorFormat, runErr)
	}

	if _, writeErr := fmt.Fprintln(command.OutOrStdout(), renderSummary(driver.Orchestrator.Mode(), stats, time.Since(startedAt))); writeErr != nil {
		return fmt.Errorf(writeOutputErrorFormat, writeErr)
	}
	return nil
}

// buildDriver loads the template set and assembles the driver for the selected mode.
// Every error it returns is a configuration error raised before any payload is read.
func buildDriver(rootConfiguration config.Root, ops fsops.Ops, httpClient *http.Client, logger *zap.Logger) (pipeline.Driver, error) {
	templateSet, templatesErr := templates.Load(ops, rootConfiguration.Prompt.TemplateFile)
	if templatesErr != nil {
		return pipeline.Driver{}, fmt.Errorf(loadTemplatesErrorFormat, templatesErr)
	}
	adapter, adapterErr := llm.NewAdapter(rootConfiguration.AI, httpClient)
	if adapterErr != nil {
		return pipeline.Driver{}, fmt.Errorf(providerInitializationErrorFormat, adapterErr)
	}
	orchestrator, orchestratorErr := pipeline.NewOrchestrator(pipeline.Dependencies{
		Client:      adapter,
		Transformer: transform.New(scriptTimeout),
		Templates:   templateSet,
		Markers: pipeline.Markers{
			Payload: rootConfiguration.Prompt.TemplateReplacePayload,
			JSON:    rootConfiguration.Prompt.TemplateReplaceJSON,
		},
		BasicConvert: rootConfiguration.Prompt.Convert,
	})
	if orchestratorErr != nil {
		return pipeline.Driver{}, fmt.Errorf(orchestratorInitializationErrorFormat, orchestratorErr)
	}
	return pipeline.Driver{
		Ops:          ops,
		Hashes:       hashstore.New(ops, rootConfiguration.Answer.HashDir),
		Orchestrator: orchestrator,
		PayloadDir:   rootConfiguration.Prompt.Dir,
		AnswerDir:    rootConfiguration.Answer.Dir,
		Logger:       logger,
	}, nil
}

package llmprompter

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/temirov/llm-prompter/internal/config"
)

// commandSettings are the values that flags or LLM_PROMPTER_* variables may override.
type commandSettings struct {
	configPath string
	logLevel   string
	apiKey     string
}

// resolveSettings reads the persistent flags through viper so that an explicit
// flag wins over the environment, which wins over the flag default.
func resolveSettings(command *cobra.Command) (commandSettings, error) {
	settings := viper.New()
	settings.SetEnvPrefix(environmentPrefix)
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()
	for _, flagName := range []string{configFlagName, logLevelFlagName, apiKeyFlagName} {
		flag := command.Flags().Lookup(flagName)
		if flag == nil {
			continue
		}
		if bindErr := settings.BindPFlag(flagName, flag); bindErr != nil {
			return commandSettings{}, fmt.Errorf(bindSettingErrorFormat, flagName, bindErr)
		}
	}
	return commandSettings{
		configPath: strings.TrimSpace(settings.GetString(configFlagName)),
		logLevel:   strings.TrimSpace(settings.GetString(logLevelFlagName)),
		apiKey:     strings.TrimSpace(settings.GetString(apiKeyFlagName)),
	}, nil
}

func loadRootConfiguration(settings commandSettings) (config.Root, string, error) {
	sourceLocator, locatorErr := config.NewDefaultSourceLocator()
	if locatorErr != nil {
		return config.Root{}, "", fmt.Errorf(configurationSearchInitializationErrorFormat, locatorErr)
	}
	configurationSource, sourceErr := sourceLocator.Locate(settings.configPath)
	if sourceErr != nil {
		return config.Root{}, "", fmt.Errorf(configurationSourceResolutionErrorFormat, sourceErr)
	}
	rootConfiguration, loadErr := config.LoadRoot(configurationSource)
	if loadErr != nil {
		return config.Root{}, "", fmt.Errorf(rootConfigurationLoadErrorFormat, configurationSource.Reference, loadErr)
	}
	if settings.logLevel != "" {
		rootConfiguration.Log.Level = settings.logLevel
	}
	if settings.apiKey != "" {
		rootConfiguration.AI.APIKey = settings.apiKey
	}
	return rootConfiguration, configurationSource.Reference, nil
}

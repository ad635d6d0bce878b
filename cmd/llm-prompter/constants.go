package llmprompter

const (
	rootCommandUse   = "llm-prompter"
	rootCommandShort = "Run batches of prompts over a directory of payload files"

	runCommandUse   = "run"
	runCommandShort = "Send every changed payload file to the configured model and store the answers"

	listCommandUse   = "list"
	listCommandShort = "Show the prompt mode, template items and named transforms of the configuration"

	initCommandUse         = "init"
	initCommandShort       = "Write starter configuration or prompt template files"
	initConfigCommandUse   = "config DIR"
	initConfigCommandShort = "Write " + configTemplateFileName + " into DIR"
	initPromptCommandUse   = "prompt DIR"
	initPromptCommandShort = "Write " + promptTemplateFileName + " into DIR"
	initArgsCount          = 1

	configTemplateFileName = "llm-prompter.config.TEMPLATE.yaml"
	promptTemplateFileName = "llm-prompter.prompt.TEMPLATE.yaml"

	configFlagName    = "config"
	configFlagUsage   = "Path to llm-prompter configuration YAML"
	logLevelFlagName  = "log-level"
	logLevelFlagUsage = "Override log.level (debug, info, warn, error)"
	apiKeyFlagName    = "api-key"
	apiKeyFlagUsage   = "Override ai.api_key"
	forceFlagName     = "force"
	forceFlagUsage    = "Process every payload file even when its stored hash matches"
	jsonFlagName      = "json"
	jsonFlagUsage     = "Generate a jsonresponse template with a convert segment"

	environmentPrefix = "LLM_PROMPTER"

	configurationSearchInitializationErrorFormat = "initialize configuration search: %w"
	configurationSourceResolutionErrorFormat     = "resolve configuration source: %w"
	rootConfigurationLoadErrorFormat             = "load configuration %s: %w"
	bindSettingErrorFormat                       = "bind setting %s: %w"
	loggerInitializationErrorFormat              = "initialize logger: %w"
	loadTemplatesErrorFormat                     = "load prompt templates: %w"
	providerInitializationErrorFormat            = "initialize provider: %w"
	orchestratorInitializationErrorFormat        = "select prompt mode: %w"
	runPipelineErrorFormat                       = "run pipeline: %w"
	renderTemplateErrorFormat                    = "render %s: %w"
	writeTemplateErrorFormat                     = "write %s: %w"
	writeOutputErrorFormat                       = "write output: %w"
	invalidBooleanValueErrorFormat               = "invalid boolean value %q"
)

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ProviderKindOpenAPI selects the OpenAI-compatible chat completions API.
	ProviderKindOpenAPI = "openapi"
	// ProviderKindOllama selects the Ollama chat API.
	ProviderKindOllama = "ollama"
	// ProviderKindMentator selects the mentator-llm-service API.
	ProviderKindMentator = "mentator"

	providerKindOpenAIAlias = "openai"

	// LogModeRewrite truncates a single log file on every run.
	LogModeRewrite = "REWRITE"
	// LogModeAppend writes a new timestamped log file on every run.
	LogModeAppend = "APPEND"

	defaultProviderURL       = "http://localhost:12345"
	defaultProviderModel     = "deepseek-coder:6.7b"
	defaultTimeoutMillis     = 600000
	defaultPayloadMarker     = "{{payload}}"
	defaultJSONMarker        = "{{json}}"
	defaultLoggingLevel      = "info"
	templateLogDirectory     = "path/to/log"
	templatePayloadDirectory = "path/to/prompts"
	templateAnswerDirectory  = "path/to/answers"
	templateHashDirectory    = "path/to/hash"
	templatePromptFile       = "path/to/prompt.template.yaml"

	rootConfigurationEmptyContentErrorFormat = "root configuration %s is empty"
	rootConfigurationUnmarshalErrorFormat    = "unmarshal root configuration %s: %w"
	rootConfigurationInvalidErrorFormat      = "invalid root configuration %s: %w"
	unsupportedProviderKindErrorFormat       = "ai.kind %q is not supported (use openapi, ollama or mentator)"
	unsupportedLogModeErrorFormat            = "log.mode %q is not supported (use REWRITE or APPEND)"
	nonPositiveTimeoutErrorFormat            = "ai.timeout must be positive, got %d"
	missingPayloadDirectoryErrorMessage      = "prompt.dir is required"
	missingAnswerDirectoryErrorMessage       = "answer.dir is required"
	missingProviderURLErrorMessage           = "ai.url is required"
	missingProviderModelErrorMessage         = "ai.model is required"
)

type Root struct {
	Log    Log    `yaml:"log"`
	AI     AI     `yaml:"ai"`
	Prompt Prompt `yaml:"prompt"`
	Answer Answer `yaml:"answer"`
}

type Log struct {
	Dir   string `yaml:"dir"`
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
}

// AI describes the completion endpoint shared by every prompt in a run.
type AI struct {
	Kind      string `yaml:"kind"`
	URL       string `yaml:"url"`
	APIKey    string `yaml:"api_key,omitempty"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	// Timeout is the per-request timeout in milliseconds.
	Timeout int    `yaml:"timeout"`
	Model   string `yaml:"model"`
}

type Prompt struct {
	Dir                    string   `yaml:"dir"`
	TemplateReplacePayload string   `yaml:"template_replace_payload,omitempty"`
	TemplateReplaceJSON    string   `yaml:"template_replace_json,omitempty"`
	TemplateFile           []string `yaml:"template_file,omitempty"`
	Convert                string   `yaml:"convert,omitempty"`
}

type Answer struct {
	Dir     string `yaml:"dir"`
	HashDir string `yaml:"hash_dir,omitempty"`
}

// LoadRoot parses the provided configuration source, fills defaults and validates required fields.
func LoadRoot(source RootConfigurationSource) (Root, error) {
	if len(source.Content) == 0 {
		return Root{}, fmt.Errorf(rootConfigurationEmptyContentErrorFormat, source.Reference)
	}

	var rootConfiguration Root
	if err := yaml.Unmarshal(source.Content, &rootConfiguration); err != nil {
		return Root{}, fmt.Errorf(rootConfigurationUnmarshalErrorFormat, source.Reference, err)
	}
	rootConfiguration.applyDefaults()

	if validationErr := rootConfiguration.Validate(); validationErr != nil {
		return Root{}, fmt.Errorf(rootConfigurationInvalidErrorFormat, source.Reference, validationErr)
	}
	return rootConfiguration, nil
}

func (root *Root) applyDefaults() {
	if strings.EqualFold(strings.TrimSpace(root.AI.Kind), providerKindOpenAIAlias) {
		root.AI.Kind = ProviderKindOpenAPI
	}
	root.AI.Kind = strings.ToLower(strings.TrimSpace(root.AI.Kind))
	if root.AI.Timeout == 0 {
		root.AI.Timeout = defaultTimeoutMillis
	}
	root.Log.Mode = strings.ToUpper(strings.TrimSpace(root.Log.Mode))
	if root.Log.Mode == "" {
		root.Log.Mode = LogModeRewrite
	}
	if strings.TrimSpace(root.Log.Level) == "" {
		root.Log.Level = defaultLoggingLevel
	}
}

// Validate reports the first missing or malformed setting.
func (root Root) Validate() error {
	switch root.AI.Kind {
	case ProviderKindOpenAPI, ProviderKindOllama, ProviderKindMentator:
	default:
		return fmt.Errorf(unsupportedProviderKindErrorFormat, root.AI.Kind)
	}
	if strings.TrimSpace(root.AI.URL) == "" {
		return errors.New(missingProviderURLErrorMessage)
	}
	if strings.TrimSpace(root.AI.Model) == "" {
		return errors.New(missingProviderModelErrorMessage)
	}
	if root.AI.Timeout <= 0 {
		return fmt.Errorf(nonPositiveTimeoutErrorFormat, root.AI.Timeout)
	}
	switch root.Log.Mode {
	case LogModeRewrite, LogModeAppend:
	default:
		return fmt.Errorf(unsupportedLogModeErrorFormat, root.Log.Mode)
	}
	if strings.TrimSpace(root.Prompt.Dir) == "" {
		return errors.New(missingPayloadDirectoryErrorMessage)
	}
	if strings.TrimSpace(root.Answer.Dir) == "" {
		return errors.New(missingAnswerDirectoryErrorMessage)
	}
	return nil
}

// RequestTimeout converts the configured millisecond timeout.
func (ai AI) RequestTimeout() time.Duration {
	return time.Duration(ai.Timeout) * time.Millisecond
}

// Credential returns the explicit api_key, falling back to the api_key_env variable.
func (ai AI) Credential() string {
	if explicit := strings.TrimSpace(ai.APIKey); explicit != "" {
		return explicit
	}
	environmentVariable := strings.TrimSpace(ai.APIKeyEnv)
	if environmentVariable == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(environmentVariable))
}

// HashSkipEnabled reports whether unchanged payloads may be skipped.
func (answer Answer) HashSkipEnabled() bool {
	return strings.TrimSpace(answer.HashDir) != ""
}

// DefaultRoot returns the configuration written by `init config`.
func DefaultRoot() Root {
	return Root{
		Log: Log{
			Dir:   templateLogDirectory,
			Mode:  LogModeRewrite,
			Level: defaultLoggingLevel,
		},
		AI: AI{
			Kind:    ProviderKindOllama,
			URL:     defaultProviderURL,
			Timeout: defaultTimeoutMillis,
			Model:   defaultProviderModel,
		},
		Prompt: Prompt{
			Dir:                    templatePayloadDirectory,
			TemplateReplacePayload: defaultPayloadMarker,
			TemplateReplaceJSON:    defaultJSONMarker,
			TemplateFile:           []string{templatePromptFile},
		},
		Answer: Answer{
			Dir:     templateAnswerDirectory,
			HashDir: templateHashDirectory,
		},
	}
}

// RenderTemplate serializes the default configuration as YAML.
func RenderTemplate() ([]byte, error) {
	return yaml.Marshal(DefaultRoot())
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	// EmbeddedRootConfigurationReference names the built-in source used when no file is found.
	EmbeddedRootConfigurationReference = "embedded default configuration"

	workingDirectoryConfigurationFileName = "llm-prompter.yaml"
	homeConfigurationDirectoryName        = ".llm-prompter"
	homeConfigurationFileName             = "config.yaml"
	homeEnvironmentVariableName           = "HOME"

	explicitSourceErrorFormat   = "configuration file %s: %w"
	searchedSourceErrorFormat   = "read configuration %s: %w"
	workingDirectoryErrorFormat = "determine working directory: %w"
)

//go:embed default_configuration.yaml
var embeddedRootConfiguration []byte

// RootConfigurationSource holds the raw configuration data and its origin.
type RootConfigurationSource struct {
	Reference string
	Content   []byte
}

// SourceLocator finds the configuration file for a run.
// An explicit path must be readable; otherwise ./llm-prompter.yaml and
// ~/.llm-prompter/config.yaml are tried before the embedded default.
type SourceLocator struct {
	files       afero.Fs
	searchPaths []string
}

// NewSourceLocator searches workingDirectory and homeDirectory on files. Empty directories are skipped.
func NewSourceLocator(files afero.Fs, workingDirectory string, homeDirectory string) SourceLocator {
	var searchPaths []string
	if workingDirectory != "" {
		searchPaths = append(searchPaths, filepath.Join(workingDirectory, workingDirectoryConfigurationFileName))
	}
	if homeDirectory != "" {
		searchPaths = append(searchPaths, filepath.Join(homeDirectory, homeConfigurationDirectoryName, homeConfigurationFileName))
	}
	return SourceLocator{files: files, searchPaths: searchPaths}
}

// NewDefaultSourceLocator searches the process working directory and $HOME on the OS filesystem.
func NewDefaultSourceLocator() (SourceLocator, error) {
	workingDirectory, getwdErr := os.Getwd()
	if getwdErr != nil {
		return SourceLocator{}, fmt.Errorf(workingDirectoryErrorFormat, getwdErr)
	}
	return NewSourceLocator(afero.NewOsFs(), workingDirectory, os.Getenv(homeEnvironmentVariableName)), nil
}

// Locate returns the configuration source. A missing or unreadable explicit
// path is an error; a missing search path is skipped.
func (locator SourceLocator) Locate(explicitPath string) (RootConfigurationSource, error) {
	if explicitPath != "" {
		content, readErr := afero.ReadFile(locator.files, explicitPath)
		if readErr != nil {
			return RootConfigurationSource{}, fmt.Errorf(explicitSourceErrorFormat, explicitPath, readErr)
		}
		return RootConfigurationSource{Reference: explicitPath, Content: content}, nil
	}

	for _, searchPath := range locator.searchPaths {
		content, readErr := afero.ReadFile(locator.files, searchPath)
		switch {
		case readErr == nil:
			return RootConfigurationSource{Reference: searchPath, Content: content}, nil
		case errors.Is(readErr, fs.ErrNotExist):
			continue
		default:
			return RootConfigurationSource{}, fmt.Errorf(searchedSourceErrorFormat, searchPath, readErr)
		}
	}
	return RootConfigurationSource{Reference: EmbeddedRootConfigurationReference, Content: embeddedRootConfiguration}, nil
}

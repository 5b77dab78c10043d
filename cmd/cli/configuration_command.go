package cli

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	configurationCommandUseConstant              = "config"
	configurationCommandShortDescriptionConstant = "Print the effective configuration as YAML"
	configurationSourceTemplateConstant          = "# source: %s\n"
	embeddedConfigurationSourceConstant          = "embedded defaults"
	configurationRenderErrorTemplateConstant     = "unable to render configuration: %w"
)

//go:embed default_config.yaml
var embeddedDefaultConfigurationContent []byte

// EmbeddedDefaultConfiguration returns the built-in configuration document and its type.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return bytes.Clone(embeddedDefaultConfigurationContent), configurationTypeConstant
}

// SettingsProvider returns the merged configuration settings.
type SettingsProvider func() map[string]any

// ConfigurationFileProvider returns the configuration file that was loaded, if any.
type ConfigurationFileProvider func() string

// ConfigurationCommandBuilder assembles the config command.
type ConfigurationCommandBuilder struct {
	SettingsProvider          SettingsProvider
	ConfigurationFileProvider ConfigurationFileProvider
}

// Build constructs the config command.
func (builder *ConfigurationCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   configurationCommandUseConstant,
		Short: configurationCommandShortDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}, nil
}

func (builder *ConfigurationCommandBuilder) run(command *cobra.Command, arguments []string) error {
	settings := map[string]any{}
	if builder.SettingsProvider != nil && builder.SettingsProvider() != nil {
		settings = builder.SettingsProvider()
	}

	configurationSource := embeddedConfigurationSourceConstant
	if builder.ConfigurationFileProvider != nil && len(builder.ConfigurationFileProvider()) > 0 {
		configurationSource = builder.ConfigurationFileProvider()
	}

	renderedSettings, renderError := yaml.Marshal(settings)
	if renderError != nil {
		return fmt.Errorf(configurationRenderErrorTemplateConstant, renderError)
	}

	outputWriter := command.OutOrStdout()
	if _, writeError := fmt.Fprintf(outputWriter, configurationSourceTemplateConstant, configurationSource); writeError != nil {
		return writeError
	}
	_, writeError := outputWriter.Write(renderedSettings)
	return writeError
}

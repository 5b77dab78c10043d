package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitpush/internal/gitsync"
)

const (
	testConfigurationFileNameConstant    = "config.yaml"
	testConfigurationFileContentConstant = "common:\n  log_level: info\n  log_format: structured\ntools:\n  sync:\n    remote: upstream\n    mode: push\n    command_timeout: 45s\n    ignore:\n      managed_paths:\n        - build/\n"
)

func newIsolatedApplication(testInstance *testing.T) *Application {
	testInstance.Helper()
	testInstance.Setenv("HOME", testInstance.TempDir())
	testInstance.Chdir(testInstance.TempDir())
	return NewApplication()
}

func TestApplicationRegistersCommands(testInstance *testing.T) {
	application := newIsolatedApplication(testInstance)

	registeredNames := []string{}
	for _, command := range application.rootCommand.Commands() {
		registeredNames = append(registeredNames, command.Name())
	}
	require.Subset(testInstance, registeredNames, []string{"sync", "branches", "ignore", "config"})
	require.NotNil(testInstance, application.rootCommand.RunE)
}

func TestApplicationEmbeddedDefaults(testInstance *testing.T) {
	application := newIsolatedApplication(testInstance)

	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))

	require.Equal(testInstance, "warn", application.configuration.Common.LogLevel)
	require.Equal(testInstance, "console", application.configuration.Common.LogFormat)

	syncConfiguration := application.configuration.Tools.Sync
	require.Equal(testInstance, "origin", syncConfiguration.RemoteName)
	require.Equal(testInstance, string(gitsync.ModeAsk), syncConfiguration.Mode)
	require.True(testInstance, syncConfiguration.InitializeRepository)
	require.True(testInstance, syncConfiguration.Ignore.Enabled)
	require.Equal(testInstance, gitsync.DefaultManagedPaths(), syncConfiguration.Ignore.ManagedPaths)
	require.Zero(testInstance, syncConfiguration.CommandTimeout)
	require.Empty(testInstance, application.configurationMetadata.ConfigFileUsed)
}

func TestApplicationConfigurationFileOverridesDefaults(testInstance *testing.T) {
	application := newIsolatedApplication(testInstance)
	configurationPath := filepath.Join(testInstance.TempDir(), testConfigurationFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(testConfigurationFileContentConstant), 0o600))
	application.configurationFilePath = configurationPath

	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))

	syncConfiguration := application.configuration.Tools.Sync
	require.Equal(testInstance, "upstream", syncConfiguration.RemoteName)
	require.Equal(testInstance, string(gitsync.ModePush), syncConfiguration.Mode)
	require.Equal(testInstance, 45*time.Second, syncConfiguration.CommandTimeout)
	require.Equal(testInstance, []string{"build/"}, syncConfiguration.Ignore.ManagedPaths)
	require.Equal(testInstance, configurationPath, application.configurationMetadata.ConfigFileUsed)
}

func TestApplicationEnvironmentOverridesDefaults(testInstance *testing.T) {
	application := newIsolatedApplication(testInstance)
	testInstance.Setenv("GITPUSH_TOOLS_SYNC_REMOTE", "mirror")
	testInstance.Setenv("GITPUSH_TOOLS_SYNC_MODE", "overwrite")

	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))
	require.Equal(testInstance, "mirror", application.configuration.Tools.Sync.RemoteName)
	require.Equal(testInstance, string(gitsync.ModeOverwrite), application.configuration.Tools.Sync.Mode)
}

func TestConfigurationCommandPrintsEffectiveSettings(testInstance *testing.T) {
	application := newIsolatedApplication(testInstance)
	output := &bytes.Buffer{}
	application.rootCommand.SetOut(output)
	application.rootCommand.SetArgs([]string{"config"})

	require.NoError(testInstance, application.ExecuteContext(context.Background()))

	rendered := output.String()
	require.Contains(testInstance, rendered, "# source: embedded defaults")
	require.Contains(testInstance, rendered, "remote: origin")
	require.Contains(testInstance, rendered, "node_modules/")
}

func TestApplicationRejectsUnsupportedLogLevel(testInstance *testing.T) {
	application := newIsolatedApplication(testInstance)
	application.rootCommand.SetOut(&bytes.Buffer{})
	application.rootCommand.SetArgs([]string{"config", "--log-level", "loud"})

	executionError := application.ExecuteContext(context.Background())
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "unsupported log level")
}

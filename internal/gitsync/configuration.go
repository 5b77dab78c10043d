package gitsync

import (
	"fmt"
	"strings"
	"time"

	"github.com/temirov/gitpush/internal/prompt"
)

const (
	configurationKeySeparatorConstant     = "."
	defaultRepositoryPathConstant         = "."
	defaultRemoteNameConstant             = "origin"
	defaultIdentityNameConstant           = "gitpush"
	defaultIdentityEmailConstant          = "gitpush@localhost"
	defaultIgnoreFileNameConstant         = ".gitignore"
	unsupportedModeTemplateConstant       = "unsupported mode %q (expected ask, push, or overwrite)"
	repositoryConfigKeyConstant           = "repository"
	remoteConfigKeyConstant               = "remote"
	remoteURLConfigKeyConstant            = "remote_url"
	initializeRepositoryConfigKeyConstant = "initialize_repository"
	fetchOnStartConfigKeyConstant         = "fetch_on_start"
	identityNameConfigKeyConstant         = "identity.name"
	identityEmailConfigKeyConstant        = "identity.email"
	maxPromptAttemptsConfigKeyConstant    = "max_prompt_attempts"
	commandTimeoutConfigKeyConstant       = "command_timeout"
	modeConfigKeyConstant                 = "mode"
	branchConfirmationConfigKeyConstant   = "require_branch_confirmation"
	untrackManagedPathsConfigKeyConstant  = "untrack_managed_paths"
	ignoreEnabledConfigKeyConstant        = "ignore.enabled"
	ignoreFileConfigKeyConstant           = "ignore.file"
	ignoreManagedPathsConfigKeyConstant   = "ignore.managed_paths"
	ignoreRulesConfigKeyConstant          = "ignore.rules"
)

// Mode selects what happens after the branch has been reconciled.
type Mode string

// Supported modes.
const (
	ModeAsk       Mode = "ask"
	ModePush      Mode = "push"
	ModeOverwrite Mode = "overwrite"
)

// ModeChoices lists the accepted mode values in display order.
func ModeChoices() []string {
	return []string{string(ModeAsk), string(ModePush), string(ModeOverwrite)}
}

// ParseMode normalizes a mode value. An empty value means ask.
func ParseMode(value string) (Mode, error) {
	normalizedValue := Mode(strings.ToLower(strings.TrimSpace(value)))
	switch normalizedValue {
	case "", ModeAsk:
		return ModeAsk, nil
	case ModePush, ModeOverwrite:
		return normalizedValue, nil
	default:
		return "", fmt.Errorf(unsupportedModeTemplateConstant, value)
	}
}

// IdentityConfiguration is the commit author applied when a repository has none.
type IdentityConfiguration struct {
	Name  string `mapstructure:"name"`
	Email string `mapstructure:"email"`
}

// IgnoreConfiguration controls the ignore file and the managed path list.
type IgnoreConfiguration struct {
	Enabled      bool     `mapstructure:"enabled"`
	File         string   `mapstructure:"file"`
	ManagedPaths []string `mapstructure:"managed_paths"`
	Rules        []string `mapstructure:"rules"`
}

// CommandConfiguration captures persistent settings for the sync commands.
type CommandConfiguration struct {
	RepositoryPath            string                `mapstructure:"repository"`
	RemoteName                string                `mapstructure:"remote"`
	RemoteURL                 string                `mapstructure:"remote_url"`
	InitializeRepository      bool                  `mapstructure:"initialize_repository"`
	FetchOnStart              bool                  `mapstructure:"fetch_on_start"`
	Identity                  IdentityConfiguration `mapstructure:"identity"`
	MaxPromptAttempts         int                   `mapstructure:"max_prompt_attempts"`
	CommandTimeout            time.Duration         `mapstructure:"command_timeout"`
	Mode                      string                `mapstructure:"mode"`
	RequireBranchConfirmation bool                  `mapstructure:"require_branch_confirmation"`
	UntrackManagedPaths       bool                  `mapstructure:"untrack_managed_paths"`
	Ignore                    IgnoreConfiguration   `mapstructure:"ignore"`
}

// DefaultManagedPaths returns the paths kept out of version control by default.
func DefaultManagedPaths() []string {
	return []string{"venv/", "dist/", "node_modules/", "auth_info/", "modules/auth_info/", "service-account.json"}
}

// DefaultCommandConfiguration returns baseline configuration values for the sync commands.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RepositoryPath:       defaultRepositoryPathConstant,
		RemoteName:           defaultRemoteNameConstant,
		InitializeRepository: true,
		FetchOnStart:         true,
		Identity: IdentityConfiguration{
			Name:  defaultIdentityNameConstant,
			Email: defaultIdentityEmailConstant,
		},
		MaxPromptAttempts:   prompt.DefaultMaxAttempts,
		Mode:                string(ModeAsk),
		UntrackManagedPaths: true,
		Ignore: IgnoreConfiguration{
			Enabled:      true,
			File:         defaultIgnoreFileNameConstant,
			ManagedPaths: DefaultManagedPaths(),
		},
	}
}

// DefaultConfigurationValues exposes the defaults as flattened viper keys under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	values := map[string]any{
		repositoryConfigKeyConstant:           defaults.RepositoryPath,
		remoteConfigKeyConstant:               defaults.RemoteName,
		remoteURLConfigKeyConstant:            defaults.RemoteURL,
		initializeRepositoryConfigKeyConstant: defaults.InitializeRepository,
		fetchOnStartConfigKeyConstant:         defaults.FetchOnStart,
		identityNameConfigKeyConstant:         defaults.Identity.Name,
		identityEmailConfigKeyConstant:        defaults.Identity.Email,
		maxPromptAttemptsConfigKeyConstant:    defaults.MaxPromptAttempts,
		commandTimeoutConfigKeyConstant:       defaults.CommandTimeout,
		modeConfigKeyConstant:                 defaults.Mode,
		branchConfirmationConfigKeyConstant:   defaults.RequireBranchConfirmation,
		untrackManagedPathsConfigKeyConstant:  defaults.UntrackManagedPaths,
		ignoreEnabledConfigKeyConstant:        defaults.Ignore.Enabled,
		ignoreFileConfigKeyConstant:           defaults.Ignore.File,
		ignoreManagedPathsConfigKeyConstant:   defaults.Ignore.ManagedPaths,
		ignoreRulesConfigKeyConstant:          []string{},
	}

	trimmedPrefix := strings.TrimSpace(prefix)
	if len(trimmedPrefix) == 0 {
		return values
	}

	prefixedValues := make(map[string]any, len(values))
	for key, value := range values {
		prefixedValues[trimmedPrefix+configurationKeySeparatorConstant+key] = value
	}
	return prefixedValues
}

// Sanitize trims whitespace and applies defaults to unset configuration values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	sanitized.RepositoryPath = valueOrDefault(configuration.RepositoryPath, defaults.RepositoryPath)
	sanitized.RemoteName = valueOrDefault(configuration.RemoteName, defaults.RemoteName)
	sanitized.RemoteURL = strings.TrimSpace(configuration.RemoteURL)
	sanitized.Identity.Name = strings.TrimSpace(configuration.Identity.Name)
	sanitized.Identity.Email = strings.TrimSpace(configuration.Identity.Email)
	sanitized.Mode = strings.ToLower(strings.TrimSpace(configuration.Mode))
	sanitized.Ignore.File = valueOrDefault(configuration.Ignore.File, defaults.Ignore.File)
	sanitized.Ignore.ManagedPaths = sanitizeList(configuration.Ignore.ManagedPaths)
	sanitized.Ignore.Rules = sanitizeList(configuration.Ignore.Rules)

	if sanitized.MaxPromptAttempts < 1 {
		sanitized.MaxPromptAttempts = defaults.MaxPromptAttempts
	}
	if sanitized.CommandTimeout < 0 {
		sanitized.CommandTimeout = 0
	}

	return sanitized
}

func valueOrDefault(value string, defaultValue string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return defaultValue
	}
	return trimmedValue
}

func sanitizeList(raw []string) []string {
	sanitized := make([]string, 0, len(raw))
	for index := range raw {
		trimmed := strings.TrimSpace(raw[index])
		if len(trimmed) == 0 {
			continue
		}
		sanitized = append(sanitized, trimmed)
	}
	return sanitized
}

package gitrepo

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

const (
	sshProtocolPrefixConstant           = "ssh://"
	sshUserDelimiterConstant            = "@"
	sshPathDelimiterConstant            = ":"
	httpsProtocolPrefixConstant         = "https://"
	httpProtocolPrefixConstant          = "http://"
	fileProtocolPrefixConstant          = "file://"
	pathSeparatorConstant               = "/"
	gitSuffixConstant                   = ".git"
	remoteURLParseErrorTemplateConstant = "%s: %s"
	invalidRemoteURLMessageConstant     = "invalid remote url"
	requiredValueMessageConstant        = "value required"
	redactedCredentialsConstant         = "redacted"
	minimumHTTPSPathSegmentsConstant    = 2
)

// RemoteProtocol enumerates supported git remote protocols.
type RemoteProtocol string

// Supported remote protocols.
const (
	RemoteProtocolSSH   RemoteProtocol = RemoteProtocol("ssh")
	RemoteProtocolHTTPS RemoteProtocol = RemoteProtocol("https")
	RemoteProtocolFile  RemoteProtocol = RemoteProtocol("file")
)

// RemoteURL represents a structured git remote URL.
type RemoteURL struct {
	Protocol   RemoteProtocol
	Host       string
	Owner      string
	Repository string
	// Path holds the filesystem location for file remotes.
	Path string
	// HasCredentials reports whether the original URL embedded user information.
	HasCredentials bool
}

// RemoteURLParseError indicates a remote string could not be parsed.
type RemoteURLParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf(remoteURLParseErrorTemplateConstant, parseError.Input, parseError.Message)
}

// ParseRemoteURL converts a textual remote URL into a structured representation.
// SSH (scp-like or ssh://), HTTP(S), file:// and absolute filesystem paths are accepted.
func ParseRemoteURL(remote string) (RemoteURL, error) {
	trimmedRemote := strings.TrimSpace(remote)
	if len(trimmedRemote) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: requiredValueMessageConstant}
	}

	switch {
	case strings.HasPrefix(trimmedRemote, sshProtocolPrefixConstant):
		return parseSSHRemote(strings.TrimPrefix(trimmedRemote, sshProtocolPrefixConstant))
	case strings.HasPrefix(trimmedRemote, httpsProtocolPrefixConstant), strings.HasPrefix(trimmedRemote, httpProtocolPrefixConstant):
		return parseHTTPSRemote(trimmedRemote)
	case strings.HasPrefix(trimmedRemote, fileProtocolPrefixConstant):
		return parseFileRemote(remote, strings.TrimPrefix(trimmedRemote, fileProtocolPrefixConstant))
	case filepath.IsAbs(trimmedRemote):
		return parseFileRemote(remote, trimmedRemote)
	case strings.Contains(trimmedRemote, sshUserDelimiterConstant):
		return parseSSHRemote(trimmedRemote)
	default:
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}
}

// RedactRemoteURL hides embedded credentials so the URL can be logged.
func RedactRemoteURL(remote string) string {
	trimmedRemote := strings.TrimSpace(remote)
	if !strings.HasPrefix(trimmedRemote, httpsProtocolPrefixConstant) && !strings.HasPrefix(trimmedRemote, httpProtocolPrefixConstant) {
		return trimmedRemote
	}

	parsedURL, parseError := url.Parse(trimmedRemote)
	if parseError != nil || parsedURL.User == nil {
		return trimmedRemote
	}
	parsedURL.User = url.User(redactedCredentialsConstant)
	return parsedURL.String()
}

func parseSSHRemote(remote string) (RemoteURL, error) {
	userSplitIndex := strings.Index(remote, sshUserDelimiterConstant)
	if userSplitIndex == -1 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}
	hostAndPath := remote[userSplitIndex+1:]

	var host string
	var path string
	pathSplitIndex := strings.Index(hostAndPath, sshPathDelimiterConstant)
	if pathSplitIndex == -1 {
		slashIndex := strings.Index(hostAndPath, pathSeparatorConstant)
		if slashIndex == -1 {
			return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
		}
		host = hostAndPath[:slashIndex]
		path = hostAndPath[slashIndex+1:]
	} else {
		host = hostAndPath[:pathSplitIndex]
		path = strings.TrimPrefix(hostAndPath[pathSplitIndex+1:], pathSeparatorConstant)
	}
	if len(host) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}

	owner, repository, parseError := splitOwnerAndRepository(path)
	if parseError != nil {
		return RemoteURL{}, parseError
	}
	return RemoteURL{Protocol: RemoteProtocolSSH, Host: host, Owner: owner, Repository: repository}, nil
}

func parseHTTPSRemote(remote string) (RemoteURL, error) {
	parsedURL, parseError := url.Parse(remote)
	if parseError != nil || len(parsedURL.Host) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: RedactRemoteURL(remote), Message: invalidRemoteURLMessageConstant}
	}

	pathSegments := strings.Split(strings.Trim(parsedURL.Path, pathSeparatorConstant), pathSeparatorConstant)
	if len(pathSegments) < minimumHTTPSPathSegmentsConstant || len(pathSegments[0]) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: RedactRemoteURL(remote), Message: invalidRemoteURLMessageConstant}
	}

	repository, repositoryError := normalizeRepositoryName(strings.Join(pathSegments[1:], pathSeparatorConstant))
	if repositoryError != nil {
		return RemoteURL{}, repositoryError
	}

	return RemoteURL{
		Protocol:       RemoteProtocolHTTPS,
		Host:           parsedURL.Host,
		Owner:          pathSegments[0],
		Repository:     repository,
		HasCredentials: parsedURL.User != nil,
	}, nil
}

func parseFileRemote(original string, location string) (RemoteURL, error) {
	if !filepath.IsAbs(location) {
		return RemoteURL{}, RemoteURLParseError{Input: original, Message: invalidRemoteURLMessageConstant}
	}
	cleanedLocation := filepath.Clean(location)
	return RemoteURL{
		Protocol:   RemoteProtocolFile,
		Path:       cleanedLocation,
		Repository: strings.TrimSuffix(filepath.Base(cleanedLocation), gitSuffixConstant),
	}, nil
}

func splitOwnerAndRepository(path string) (string, string, error) {
	segments := strings.Split(path, pathSeparatorConstant)
	if len(segments) != 2 || len(segments[0]) == 0 {
		return "", "", RemoteURLParseError{Input: path, Message: invalidRemoteURLMessageConstant}
	}
	repository, parseError := normalizeRepositoryName(segments[1])
	if parseError != nil {
		return "", "", parseError
	}
	return segments[0], repository, nil
}

func normalizeRepositoryName(repository string) (string, error) {
	trimmed := strings.TrimSuffix(repository, gitSuffixConstant)
	if len(trimmed) == 0 {
		return "", RemoteURLParseError{Input: repository, Message: invalidRemoteURLMessageConstant}
	}
	return trimmed, nil
}

package filesystem_test

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitpush/internal/filesystem"
)

func TestOSFileSystemRoundTrip(testInstance *testing.T) {
	var fileSystem filesystem.FileSystem = filesystem.OSFileSystem{}
	targetPath := filepath.Join(testInstance.TempDir(), ".gitignore")

	_, missingError := fileSystem.Stat(targetPath)
	require.True(testInstance, errors.Is(missingError, fs.ErrNotExist))

	require.NoError(testInstance, fileSystem.WriteFile(targetPath, []byte("dist/\n"), 0o644))

	info, statError := fileSystem.Stat(targetPath)
	require.NoError(testInstance, statError)
	require.False(testInstance, info.IsDir())

	contents, readError := fileSystem.ReadFile(targetPath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "dist/\n", string(contents))
}

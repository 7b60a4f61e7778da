package sftpd

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrGenerateHostKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "host_key.pem")

	signer, err := LoadOrGenerateHostKey(path)
	require.NoError(t, err)
	require.NotNil(t, signer)
	assert.Equal(t, "ssh-rsa", signer.PublicKey().Type())

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	// A second load returns the same key instead of generating a new one.
	again, err := LoadOrGenerateHostKey(path)
	require.NoError(t, err)
	assert.Equal(t, signer.PublicKey().Marshal(), again.PublicKey().Marshal())
}

func TestLoadHostKeyRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a key"), 0600))

	_, err := LoadOrGenerateHostKey(path)
	assert.Error(t, err)
}

package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource(t *testing.T) {
	src, err := Source("https://github.com/acme/shop.git", "main", "ghp_secret")
	require.NoError(t, err)
	assert.Equal(t, "git::https://ghp_secret@github.com/acme/shop.git?ref=main", src)
}

func TestSource_NoCredential(t *testing.T) {
	src, err := Source("https://github.com/acme/shop.git", "develop", "")
	require.NoError(t, err)
	assert.Equal(t, "git::https://github.com/acme/shop.git?ref=develop", src)
}

func TestSource_SSHRemoteKeepsCredentialOut(t *testing.T) {
	src, err := Source("ssh://git@github.com/acme/shop.git", "main", "ghp_secret")
	require.NoError(t, err)
	assert.NotContains(t, src, "ghp_secret")
	assert.Contains(t, src, "ref=main")
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "https://github.com/acme/shop.git",
		Redact("https://ghp_secret@github.com/acme/shop.git"))
}

package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInputs() Inputs {
	return Inputs{
		RepoURL:    "https://github.com/acme/widget-shop.git",
		Credential: "ghp_token",
		Branch:     "main",
		SSHUser:    "root",
		SSHHost:    "203.0.113.10",
		KeyFile:    "/home/op/.ssh/id_ed25519",
		AppPort:    "8080",
	}
}

func TestNew_Valid(t *testing.T) {
	s, err := New(validInputs())
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "widget-shop", s.AppName)
	assert.Equal(t, 8080, s.AppPort)
	assert.Equal(t, "/srv/apps/widget-shop", s.RemoteDir)
	assert.Equal(t, 22, s.Target.Port)
	assert.Equal(t, "203.0.113.10:22", s.Target.Address())
}

func TestNew_NonNumericPort(t *testing.T) {
	in := validInputs()
	in.AppPort = "abc"

	_, err := New(in)
	require.Error(t, err)

	var inputErr *InvalidInputError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, "app port", inputErr.Field)
}

func TestNew_PortOutOfRange(t *testing.T) {
	in := validInputs()
	in.AppPort = "70000"

	_, err := New(in)
	var inputErr *InvalidInputError
	require.True(t, errors.As(err, &inputErr))
}

func TestNew_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Inputs)
	}{
		{"host", func(in *Inputs) { in.SSHHost = "" }},
		{"user", func(in *Inputs) { in.SSHUser = "" }},
		{"key file", func(in *Inputs) { in.KeyFile = "" }},
		{"repository", func(in *Inputs) { in.RepoURL = "" }},
		{"credential", func(in *Inputs) { in.Credential = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInputs()
			tt.mutate(&in)

			_, err := New(in)
			var inputErr *InvalidInputError
			require.True(t, errors.As(err, &inputErr), "expected InvalidInputError, got %v", err)
		})
	}
}

func TestNew_BranchDefault(t *testing.T) {
	in := validInputs()
	in.Branch = ""

	s, err := New(in)
	require.NoError(t, err)
	assert.Equal(t, DefaultBranch, s.Branch)
}

func TestNew_CustomSSHPort(t *testing.T) {
	in := validInputs()
	in.SSHPort = "2222"

	s, err := New(in)
	require.NoError(t, err)
	assert.Equal(t, 2222, s.Target.Port)
}

func TestAppName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/acme/Widget-Shop.git", "widget-shop"},
		{"git@github.com:acme/widget_shop.git", "widget-shop"},
		{"https://github.com/acme/shop", "shop"},
		{"https://github.com/acme/shop/", "shop"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, AppName(tt.url), "url %q", tt.url)
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "hello-world", Slugify("Hello World"))
	assert.Equal(t, "my-app-20", Slugify("My App 2.0!"))
	assert.Equal(t, "app", Slugify("--app--"))
}

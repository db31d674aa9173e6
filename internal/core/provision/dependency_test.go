package provision

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_CoversRequiredDependencies(t *testing.T) {
	deps := Defaults()
	require.Len(t, deps, 3)

	names := make([]string, 0, len(deps))
	for _, d := range deps {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"docker", "compose", "nginx"}, names)
}

func TestDefaults_EveryDependencyHasFallbackChain(t *testing.T) {
	for _, d := range Defaults() {
		assert.NotEmpty(t, d.Probe, "dependency %s needs a probe", d.Name)
		require.GreaterOrEqual(t, len(d.Installers), 2, "dependency %s needs a fallback chain", d.Name)
		assert.Equal(t, "apt", d.Installers[0].Name, "Debian family is probed first for %s", d.Name)
		for _, inst := range d.Installers {
			assert.NotEmpty(t, inst.Script)
		}
	}
}

func TestStartScript(t *testing.T) {
	docker := Dependency{Name: "docker", Service: "docker"}
	script := docker.StartScript()
	assert.True(t, strings.Contains(script, "systemctl start docker"))
	assert.True(t, strings.Contains(script, "systemctl enable docker"))

	compose := Dependency{Name: "compose"}
	assert.Empty(t, compose.StartScript())
}

package deploy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlan_Declarative(t *testing.T) {
	plan := NewPlan("shop", "/srv/apps/shop", 8080, true)

	assert.Equal(t, StrategyDeclarative, plan.Strategy)
	require.Len(t, plan.Commands, 2)

	assert.Contains(t, plan.Commands[0].Line, "docker compose -p shop down --remove-orphans")
	assert.True(t, plan.Commands[0].Tolerated, "down on a fresh host is not an error")
	assert.Contains(t, plan.Commands[1].Line, "docker compose -p shop up -d --build")
	assert.False(t, plan.Commands[1].Tolerated)
	assert.Contains(t, plan.Commands[1].Line, "cd /srv/apps/shop")

	assert.Equal(t, "docker ps -q -f name=shop", plan.PresenceProbe)
}

func TestNewPlan_Fallback(t *testing.T) {
	plan := NewPlan("shop", "/srv/apps/shop", 8080, false)

	assert.Equal(t, StrategyContainer, plan.Strategy)
	require.Len(t, plan.Commands, 4)

	assert.Equal(t, "docker stop shop", plan.Commands[0].Line)
	assert.True(t, plan.Commands[0].Tolerated)
	assert.Equal(t, "docker rm shop", plan.Commands[1].Line)
	assert.True(t, plan.Commands[1].Tolerated)
	assert.Equal(t, "docker build -t shop /srv/apps/shop", plan.Commands[2].Line)
	assert.False(t, plan.Commands[2].Tolerated)
	assert.Equal(t, "docker run -d --name shop -p 8080:8080 shop", plan.Commands[3].Line)
	assert.False(t, plan.Commands[3].Tolerated)
}

func TestNewPlan_PublishesConfiguredPortBothSides(t *testing.T) {
	plan := NewPlan("api", "/srv/apps/api", 3000, false)
	assert.Contains(t, plan.Commands[3].Line, "-p 3000:3000")
}

func TestTeardownPlan_AllTolerated(t *testing.T) {
	cmds := TeardownPlan("shop", "/srv/apps/shop")
	require.NotEmpty(t, cmds)
	for _, c := range cmds {
		assert.True(t, c.Tolerated, "teardown must tolerate absent resources: %s", c.Line)
	}
}

// Package deploy plans the remote command sequences that move the
// application between absent, building, and running. Pure command
// construction; execution and post-condition checking live in
// internal/shell/deploy.
package deploy

import "fmt"

// Strategy selects how the application is built and started.
type Strategy string

const (
	// StrategyDeclarative drives the deployment through the compose
	// definition at the artifact root.
	StrategyDeclarative Strategy = "declarative"

	// StrategyContainer is the single named container fallback used when
	// no declarative definition exists.
	StrategyContainer Strategy = "container"
)

// Command is one remote invocation in a plan. Tolerated commands treat a
// non-zero exit as "already in desired state" rather than a failure, so
// stopping a container that never ran is not an error.
type Command struct {
	Line      string
	Tolerated bool
}

// Plan is the ordered command sequence for one deploy or teardown, plus
// the probe asserting the post-condition.
type Plan struct {
	Strategy Strategy
	Commands []Command

	// PresenceProbe lists running containers matching the application
	// name; empty output means the container failed to start.
	PresenceProbe string
}

// NewPlan builds the deployment plan. Redeploys always tear down any
// prior instance before rebuilding, so two deploys of the same name end
// with exactly one running container.
func NewPlan(app, remoteDir string, port int, declarative bool) Plan {
	if declarative {
		return Plan{
			Strategy: StrategyDeclarative,
			Commands: []Command{
				{Line: fmt.Sprintf("cd %s && docker compose -p %s down --remove-orphans", remoteDir, app), Tolerated: true},
				{Line: fmt.Sprintf("cd %s && docker compose -p %s up -d --build", remoteDir, app)},
			},
			PresenceProbe: presenceProbe(app),
		}
	}

	return Plan{
		Strategy: StrategyContainer,
		Commands: []Command{
			{Line: fmt.Sprintf("docker stop %s", app), Tolerated: true},
			{Line: fmt.Sprintf("docker rm %s", app), Tolerated: true},
			{Line: fmt.Sprintf("docker build -t %s %s", app, remoteDir)},
			{Line: fmt.Sprintf("docker run -d --name %s -p %d:%d %s", app, port, port, app)},
		},
		PresenceProbe: presenceProbe(app),
	}
}

// TeardownPlan builds the cleanup sequence for the application itself.
// Every command is tolerated: tearing down something never deployed must
// succeed. Both the declarative and fallback teardowns run, because the
// cleanup caller cannot know which path a prior session took.
func TeardownPlan(app, remoteDir string) []Command {
	return []Command{
		{Line: fmt.Sprintf("cd %s && docker compose -p %s down --remove-orphans", remoteDir, app), Tolerated: true},
		{Line: fmt.Sprintf("docker stop %s", app), Tolerated: true},
		{Line: fmt.Sprintf("docker rm %s", app), Tolerated: true},
	}
}

func presenceProbe(app string) string {
	return fmt.Sprintf("docker ps -q -f name=%s", app)
}

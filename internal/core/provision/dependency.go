// Package provision models the system dependencies a target must carry
// before a deployment can run, and the ordered installer chains used to
// converge an unprovisioned host. Pure data and command text; execution
// lives in internal/shell/provision.
package provision

// Installer is one strategy for installing a dependency. Strategies are
// tried in order until one reports success.
type Installer struct {
	// Name identifies the package-manager family, e.g. "apt" or "dnf".
	Name string

	// Script is a multi-line shell body executed as one atomic remote
	// unit. Exit zero means the dependency is installed.
	Script string
}

// Dependency describes one required system component.
type Dependency struct {
	Name string

	// Probe exits zero when the dependency is already present. A
	// non-zero probe is a signal to install, never an error.
	Probe string

	// Installers is the distro-probe fallback chain, tried in order.
	Installers []Installer

	// Service is the systemd unit to start and enable after install;
	// empty when the dependency has no daemon of its own.
	Service string
}

// StartScript returns the script that explicitly starts and enables the
// dependency's service, or "" when there is none.
func (d Dependency) StartScript() string {
	if d.Service == "" {
		return ""
	}
	return "systemctl start " + d.Service + "\nsystemctl enable " + d.Service + "\n"
}

// Defaults returns the fixed dependency set for a deployment target:
// container runtime, compose tooling, and the nginx reverse proxy.
func Defaults() []Dependency {
	return []Dependency{
		{
			Name:  "docker",
			Probe: "command -v docker",
			Installers: []Installer{
				{
					Name: "apt",
					Script: `set -e
export DEBIAN_FRONTEND=noninteractive
apt-get update -y
apt-get install -y docker.io
`,
				},
				{
					Name: "dnf",
					Script: `set -e
dnf install -y docker || yum install -y docker
`,
				},
			},
			Service: "docker",
		},
		{
			Name:  "compose",
			Probe: "docker compose version || command -v docker-compose",
			Installers: []Installer{
				{
					Name: "apt",
					Script: `set -e
export DEBIAN_FRONTEND=noninteractive
apt-get install -y docker-compose-v2 || apt-get install -y docker-compose
`,
				},
				{
					Name: "dnf",
					Script: `set -e
dnf install -y docker-compose-plugin || dnf install -y docker-compose || yum install -y docker-compose
`,
				},
			},
		},
		{
			Name:  "nginx",
			Probe: "command -v nginx",
			Installers: []Installer{
				{
					Name: "apt",
					Script: `set -e
export DEBIAN_FRONTEND=noninteractive
apt-get install -y nginx
`,
				},
				{
					Name: "dnf",
					Script: `set -e
dnf install -y nginx || yum install -y nginx
`,
				},
			},
			Service: "nginx",
		},
	}
}

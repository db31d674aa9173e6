// Package nginx renders the reverse-proxy configuration fragment for a
// deployed application: one server block per deployment, overwritten
// wholesale on each run.
package nginx

import "fmt"

// DefaultFragmentDir is where per-application fragments live on the
// target.
const DefaultFragmentDir = "/etc/nginx/conf.d"

// FragmentPath returns the fixed configuration-fragment path scoped to
// the application.
func FragmentPath(dir, app string) string {
	if dir == "" {
		dir = DefaultFragmentDir
	}
	return fmt.Sprintf("%s/%s.conf", dir, app)
}

// Fragment renders the server block routing all paths on port 80 to the
// application's local port, forwarding the original Host header and the
// client address.
func Fragment(app string, port int) string {
	return fmt.Sprintf(`# managed by dockhand; do not edit (app: %s)
server {
    listen 80;
    server_name _;

    location / {
        proxy_pass http://127.0.0.1:%d;
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
    }
}
`, app, port)
}

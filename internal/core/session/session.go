// Package session defines the unit of work for one deployment invocation:
// the validated, immutable set of inputs driving a single run against a
// single remote target.
package session

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DefaultBranch is used when no revision reference is supplied.
const DefaultBranch = "main"

// Inputs holds the raw, user-supplied values collected before a run.
// Port fields arrive as strings so that malformed values are rejected
// here rather than at flag-parsing time.
type Inputs struct {
	RepoURL    string
	Credential string
	Branch     string
	SSHUser    string
	SSHHost    string
	SSHPort    string
	KeyFile    string
	AppPort    string
	RemoteRoot string
	Cleanup    bool
}

// Target is the addressable host plus the authentication context needed
// to reach it. Owned exclusively by one Session; never shared.
type Target struct {
	Host           string `validate:"required"`
	User           string `validate:"required"`
	Port           int    `validate:"gt=0,lte=65535"`
	KeyFile        string `validate:"required"`
	ConnectTimeout time.Duration
}

// Address returns the host in host:port form.
func (t Target) Address() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// Session is the immutable description of one deployment run. All fields
// are validated before any remote operation begins; the credential is
// held in memory only and must never be persisted.
type Session struct {
	ID         string
	RepoURL    string `validate:"required"`
	Credential string `validate:"required"`
	Branch     string `validate:"required"`
	AppName    string `validate:"required"`
	AppPort    int    `validate:"gt=0,lte=65535"`
	RemoteDir  string `validate:"required"`
	Target     Target
	Cleanup    bool
}

var validate = validator.New()

// New builds and validates a Session from raw inputs. It returns an
// *InvalidInputError describing the first rejected field; no remote
// connection is attempted on failure.
func New(in Inputs) (*Session, error) {
	appPort, err := parsePort("app port", in.AppPort)
	if err != nil {
		return nil, err
	}

	sshPort := 22
	if strings.TrimSpace(in.SSHPort) != "" {
		sshPort, err = parsePort("ssh port", in.SSHPort)
		if err != nil {
			return nil, err
		}
	}

	branch := strings.TrimSpace(in.Branch)
	if branch == "" {
		branch = DefaultBranch
	}

	app := AppName(in.RepoURL)
	if app == "" {
		return nil, &InvalidInputError{Field: "repository", Reason: "cannot derive application name from repository URL"}
	}

	root := strings.TrimSpace(in.RemoteRoot)
	if root == "" {
		root = "/srv/apps"
	}

	s := &Session{
		ID:         uuid.NewString(),
		RepoURL:    strings.TrimSpace(in.RepoURL),
		Credential: in.Credential,
		Branch:     branch,
		AppName:    app,
		AppPort:    appPort,
		RemoteDir:  path.Join(root, app),
		Target: Target{
			Host:    strings.TrimSpace(in.SSHHost),
			User:    strings.TrimSpace(in.SSHUser),
			Port:    sshPort,
			KeyFile: strings.TrimSpace(in.KeyFile),
		},
		Cleanup: in.Cleanup,
	}

	// Struct validation descends into Target as well.
	if err := validate.Struct(s); err != nil {
		return nil, firstViolation(err)
	}

	return s, nil
}

// AppName derives the application name from the repository URL: the
// slugified basename with any .git suffix stripped. The container name,
// compose project name, proxy fragment name, and remote directory all
// derive from it.
func AppName(repoURL string) string {
	base := strings.TrimSpace(repoURL)
	base = strings.TrimSuffix(base, "/")
	if i := strings.LastIndexAny(base, "/:"); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, ".git")
	return Slugify(base)
}

// Slugify converts a name to a DNS-safe slug: lowercase letters, digits
// and hyphens are kept, uppercase folded, spaces and underscores become
// hyphens, everything else is dropped.
func Slugify(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + 32)
		case r == ' ' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

func parsePort(field, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &InvalidInputError{Field: field, Reason: fmt.Sprintf("%q is not a number", raw)}
	}
	if n <= 0 || n > 65535 {
		return 0, &InvalidInputError{Field: field, Reason: fmt.Sprintf("%d is outside 1-65535", n)}
	}
	return n, nil
}

func firstViolation(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		reason := "is required"
		if f.Tag() != "required" {
			reason = fmt.Sprintf("failed %q constraint", f.Tag())
		}
		return &InvalidInputError{Field: strings.ToLower(f.Field()), Reason: reason}
	}
	return &InvalidInputError{Field: "session", Reason: err.Error()}
}

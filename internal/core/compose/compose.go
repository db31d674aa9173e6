// Package compose detects and validates the declarative multi-container
// deployment definition at an artifact root. Only a file that parses as
// a valid compose project selects the declarative deployment path.
package compose

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyInput  = errors.New("compose definition is empty")
	ErrInvalidYAML = errors.New("invalid YAML syntax")
	ErrNoServices  = errors.New("compose definition has no services")
)

// FileNames are the definition file names probed at the artifact root,
// in precedence order.
var FileNames = []string{
	"compose.yaml",
	"compose.yml",
	"docker-compose.yaml",
	"docker-compose.yml",
}

// Detect returns the path of the declarative definition at the artifact
// root, or "" when none exists.
func Detect(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Validate parses the definition with compose-go and reports whether it
// describes at least one service. A present but unparseable file is an
// error rather than a silent fall back to the single-container path.
func Validate(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read compose file: %w", err)
	}
	return validateContent(string(content))
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyInput
	}

	var dict map[string]interface{}
	if err := yaml.Unmarshal([]byte(content), &dict); err != nil || dict == nil {
		return ErrInvalidYAML
	}

	project, err := loader.LoadWithContext(context.Background(), types.ConfigDetails{
		ConfigFiles: []types.ConfigFile{
			{
				Content: []byte(content),
				Config:  dict,
			},
		},
	}, func(opts *loader.Options) {
		opts.SetProjectName("dockhand-validate", false)
		opts.SkipValidation = false
		opts.SkipInterpolation = false
		opts.SkipNormalization = true
		opts.SkipExtends = true
	})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidYAML, err)
	}

	if len(project.Services) == 0 {
		return ErrNoServices
	}
	return nil
}

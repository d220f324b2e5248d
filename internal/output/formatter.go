// Package output reads community lists and renders analysis results, as
// CSV for whole runs and as text, YAML or JSON on the console.
package output

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/communitypulse/internal/errors"
	"github.com/rohankatakam/communitypulse/internal/models"
)

// Formatter renders one result.
type Formatter interface {
	Format(result *models.Result, w io.Writer) error
}

// Console formats.
const (
	FormatQuiet = "quiet" // one line per community
	FormatText  = "text"  // characteristics, patterns and metrics tables
	FormatYAML  = "yaml"
	FormatJSON  = "json"
)

// Formats lists the accepted format names.
var Formats = []string{FormatQuiet, FormatText, FormatYAML, FormatJSON}

// NewFormatter returns the formatter for a format name. Text output is
// colored when stdout is a terminal.
func NewFormatter(format string) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatQuiet:
		return &QuietFormatter{}, nil
	case FormatText, "":
		return &StandardFormatter{Color: isTerminal(os.Stdout)}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{Indent: "  "}, nil
	default:
		return nil, errors.ValidationErrorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// DefaultFormat picks the console format when none was configured: quiet
// inside git hooks, JSON when CPULSE_AI_MODE=1, text otherwise.
func DefaultFormat() string {
	if os.Getenv("GIT_AUTHOR_DATE") != "" {
		return FormatQuiet
	}
	if os.Getenv("CPULSE_AI_MODE") == "1" {
		return FormatJSON
	}
	return FormatText
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// JSONFormatter writes the result as a JSON document.
type JSONFormatter struct {
	Indent string
}

func (f *JSONFormatter) Format(result *models.Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", f.Indent)
	if err := enc.Encode(result); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, errors.SeverityMedium, "failed to encode result")
	}
	return nil
}

// YAMLFormatter writes the result as a YAML document.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(result *models.Result, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, errors.SeverityMedium, "failed to encode result")
	}
	return enc.Close()
}

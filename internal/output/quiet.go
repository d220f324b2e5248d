package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/rohankatakam/communitypulse/internal/models"
)

// QuietFormatter outputs a one-line summary per community
type QuietFormatter struct{}

func (f *QuietFormatter) Format(result *models.Result, w io.Writer) error {
	if result.Failed() {
		_, err := fmt.Fprintf(w, "❌ %s: %s\n", result.Community, result.Err)
		return err
	}

	names := patternNames(result)
	if len(names) == 0 {
		_, err := fmt.Fprintf(w, "➖ %s: no community structure\n", result.Community)
		return err
	}
	_, err := fmt.Fprintf(w, "✅ %s: %s\n", result.Community, strings.Join(names, ", "))
	return err
}

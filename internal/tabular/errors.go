package tabular

import (
	"fmt"
	"strings"
)

// ValidationError is returned when an input table lacks required columns.
type ValidationError struct {
	Source  string
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is missing required columns: [%s]", e.Source, strings.Join(e.Missing, ", "))
}

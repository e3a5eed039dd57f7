// Package stage records per-stage metrics artifacts and dated snapshots.
package stage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TimestampLayout is UTC ISO-8601 with second precision.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Metric is one named value of a stage.
type Metric struct {
	Name  string
	Value any
}

// Metrics keeps insertion order, both in JSON and in Markdown.
type Metrics []Metric

func (m Metrics) With(name string, value any) Metrics {
	return append(m, Metric{Name: name, Value: value})
}

func (m Metrics) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, metric := range m {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(metric.Name)
		if err != nil {
			return nil, err
		}

		val, err := json.Marshal(metric.Value)
		if err != nil {
			return nil, fmt.Errorf("metric %s: %w", metric.Name, err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// Result is the write-once record of a finished stage.
type Result struct {
	Name       string
	StartedAt  time.Time
	FinishedAt time.Time
	Metrics    Metrics
}

// WriteArtifact writes stage_<name>.json (metrics only) and stage_<name>.md.
func WriteArtifact(dir string, r Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating artifacts directory: %w", err)
	}

	raw, err := json.MarshalIndent(r.Metrics, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metrics for stage %s: %w", r.Name, err)
	}

	if err := os.WriteFile(filepath.Join(dir, "stage_"+r.Name+".json"), raw, 0o644); err != nil {
		return fmt.Errorf("writing stage %s json: %w", r.Name, err)
	}

	if err := os.WriteFile(filepath.Join(dir, "stage_"+r.Name+".md"), []byte(r.Markdown()), 0o644); err != nil {
		return fmt.Errorf("writing stage %s markdown: %w", r.Name, err)
	}

	return nil
}

func (r Result) Markdown() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Stage: %s\n\n", r.Name)
	fmt.Fprintf(&sb, "- started_at: `%s`\n", r.StartedAt.UTC().Format(TimestampLayout))
	fmt.Fprintf(&sb, "- finished_at: `%s`\n\n", r.FinishedAt.UTC().Format(TimestampLayout))
	sb.WriteString("## Metrics\n")

	if len(r.Metrics) > 0 {
		sb.WriteString("\n")
	}

	for i, m := range r.Metrics {
		fmt.Fprintf(&sb, "- **%s**: %s", m.Name, formatValue(m.Value))

		if i < len(r.Metrics)-1 {
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case []string:
		return "[" + strings.Join(x, ", ") + "]"
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// SaveSnapshot writes <dir>/<prefix>_<YYYY-MM-DD>.csv through write and returns
// its path.
func SaveSnapshot(dir, prefix string, day time.Time, write func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", prefix, day.Format(time.DateOnly)))

	if err := WriteFile(path, write); err != nil {
		return "", err
	}

	return path, nil
}

// WriteFile creates path and streams content into it.
func WriteFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}

	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}

	return nil
}

// WriteJSON writes v as indented JSON.
func WriteJSON(path string, v any) error {
	return WriteFile(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)

		return enc.Encode(v)
	})
}

package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rpgo/escape-velocity/internal/domain"
)

// ErrUnsupportedFormat is returned when no formatter matches a requested name.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// Formatter defines a pluggable output formatter that returns a byte slice.
// Implementations should be pure (no side effects besides deterministic formatting).
type Formatter interface {
	Format(report *domain.SimulationReport) ([]byte, error)
	// Name returns a short identifier for logging / debugging.
	Name() string
}

// FormatterFunc adapter to allow ordinary functions to act as a Formatter.
type FormatterFunc struct {
	ID string
	F  func(*domain.SimulationReport) ([]byte, error)
}

func (ff FormatterFunc) Format(r *domain.SimulationReport) ([]byte, error) { return ff.F(r) }
func (ff FormatterFunc) Name() string                                      { return ff.ID }

// nowFunc stamps output filenames (override in tests).
var nowFunc = time.Now

// WriteFormatted runs a formatter and writes its output to a timestamped file
// in dir. The written path is returned.
func WriteFormatted(f Formatter, report *domain.SimulationReport, dir, ext string) (string, error) {
	data, err := f.Format(report)
	if err != nil {
		return "", fmt.Errorf("%s formatter failed: %w", f.Name(), err)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	name := fmt.Sprintf("simulation_results_%s", nowFunc().Format("20060102_150405"))
	if f.Name() != "csv" && ext == "csv" {
		name += "_" + strings.TrimSuffix(f.Name(), "-csv")
	}
	filename := filepath.Join(dir, name+"."+ext)
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", err
	}
	return filename, nil
}

// builtInFormatters stores available formatters.
var builtInFormatters = []Formatter{
	ConsoleFormatter{},
	CSVResultsFormatter{},
	CSVDistributionFormatter{},
	CSVTrajectoriesFormatter{},
	JSONFormatter{},
	PDFFormatter{},
	YAMLFormatter{},
}

// GetFormatterByName fetches a registered formatter.
func GetFormatterByName(name string) Formatter {
	n := NormalizeFormatName(name)
	for _, f := range builtInFormatters {
		if f.Name() == n {
			return f
		}
	}
	return nil
}

// aliasMap provides user-friendly synonyms for format names.
var aliasMap = map[string]string{
	"text":             "console",
	"table":            "console",
	"csv-results":      "csv",
	"results-csv":      "csv",
	"csv-distribution": "distribution-csv",
	"boxplot-csv":      "distribution-csv",
	"csv-trajectories": "trajectories-csv",
	"raw-csv":          "trajectories-csv",
	"json-pretty":      "json",
	"yml":              "yaml",
}

// extensions maps formatter names whose file extension differs from the name.
var extensions = map[string]string{
	"console":          "txt",
	"distribution-csv": "csv",
	"trajectories-csv": "csv",
}

// ExtensionFor returns the file extension used for a formatter name.
func ExtensionFor(name string) string {
	n := NormalizeFormatName(name)
	if ext, ok := extensions[n]; ok {
		return ext
	}
	return n
}

// NormalizeFormatName lowers and resolves aliases.
func NormalizeFormatName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if mapped, ok := aliasMap[n]; ok {
		return mapped
	}
	return n
}

// AvailableFormatterNames returns the canonical formatter names.
func AvailableFormatterNames() []string {
	names := make([]string, 0, len(builtInFormatters))
	for _, f := range builtInFormatters {
		names = append(names, f.Name())
	}
	sort.Strings(names)
	return names
}

// AvailableFormatAliases returns the supported alias keys.
func AvailableFormatAliases() []string {
	keys := make([]string, 0, len(aliasMap))
	for k := range aliasMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

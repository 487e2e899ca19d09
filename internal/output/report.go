package output

import (
	"fmt"
	"strings"

	"github.com/rpgo/escape-velocity/internal/domain"
)

// GenerateReport writes report in the named format to a timestamped file in
// dir. The format "all" writes every registered file format except console.
func GenerateReport(report *domain.SimulationReport, format, dir string) ([]string, error) {
	if NormalizeFormatName(format) == "all" {
		var written []string
		for _, name := range AvailableFormatterNames() {
			if name == "console" {
				continue
			}
			path, err := WriteFormatted(GetFormatterByName(name), report, dir, ExtensionFor(name))
			if err != nil {
				return written, err
			}
			written = append(written, path)
		}
		return written, nil
	}

	f := GetFormatterByName(format)
	if f == nil {
		// enrich error with available formatters and aliases
		return nil, fmt.Errorf("%w: %q. Try one of: %s (aliases: %s)", ErrUnsupportedFormat, format,
			strings.Join(AvailableFormatterNames(), ", "), strings.Join(AvailableFormatAliases(), ", "))
	}
	path, err := WriteFormatted(f, report, dir, ExtensionFor(f.Name()))
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}

package oad

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Case is a snapshot taken at one solver or driver iteration.
type Case struct {
	Source    string // e.g. "model.loop.NLBGS" or "driver"
	Iteration int
	Residual  float64
	Values    Values
}

// RecordConfig configures the recording of the iterations.
type RecordConfig struct {
	Filename     string              `mapstructure:"filename" yaml:"filename"`
	AsCSV        bool                `mapstructure:"csv" yaml:"csv"`
	Timestamp    bool                `mapstructure:"timestamp" yaml:"timestamp"`
	Variables    []string            `mapstructure:"variables" yaml:"variables"` // empty records every variable of the first case
	CSVAppend    func(c Case) string `mapstructure:"-" yaml:"-"`                 // Custom export (do not include leading comma)
	CSVAppendHdr func() string       `mapstructure:"-" yaml:"-"`                 // Header for the custom export
}

// IsUseless returns whether this config doesn't actually do anything.
func (c RecordConfig) IsUseless() bool {
	return !c.AsCSV || c.Filename == ""
}

// createCasesCSVFile returns a file which requires a defer close statement!
func createCasesCSVFile(conf RecordConfig, runID string, header []string) (*os.File, error) {
	outDir := oadConfig().outputDir
	filename := conf.Filename
	if conf.Timestamp {
		t := time.Now()
		filename = fmt.Sprintf("cases-%s-%d-%02d-%02dT%02d.%02d.%02d.csv", filename, t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
	} else {
		filename = fmt.Sprintf("cases-%s.csv", filename)
	}
	f, err := os.Create(filepath.Join(outDir, filename))
	if err != nil {
		return nil, err
	}
	hdr := strings.Join(append([]string{"source", "iteration", "residual"}, header...), ",")
	if conf.CSVAppendHdr != nil {
		// Append the headers for the appended columns.
		hdr += "," + conf.CSVAppendHdr()
	}
	if _, err := fmt.Fprintf(f, "# Creation date (UTC): %s\n# Run ID: %s\n# Values are in the units the variables are stored in.\n%s", time.Now().UTC(), runID, hdr); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// StreamCases writes the cases read from the channel until it is closed, and returns the
// path of the file written (empty if the configuration is useless).
func StreamCases(conf RecordConfig, cases <-chan Case) (string, error) {
	if conf.IsUseless() {
		// Drain so the producers never block.
		for range cases {
		}
		return "", nil
	}
	runID := uuid.New().String()
	var f *os.File
	var columns []string
	var firstErr error
	for c := range cases {
		if firstErr != nil {
			continue
		}
		if f == nil {
			columns = conf.Variables
			if len(columns) == 0 {
				for name := range c.Values {
					columns = append(columns, name)
				}
				sort.Strings(columns)
			}
			var err error
			if f, err = createCasesCSVFile(conf, runID, columns); err != nil {
				firstErr = err
				continue
			}
		}
		row := []string{c.Source, fmt.Sprintf("%d", c.Iteration), fmt.Sprintf("%.6e", c.Residual)}
		for _, name := range columns {
			row = append(row, formatValue(c.Values[name]))
		}
		asTxt := strings.Join(row, ",")
		if conf.CSVAppend != nil {
			asTxt += "," + conf.CSVAppend(c)
		}
		if _, err := f.WriteString("\n" + asTxt); err != nil {
			firstErr = err
		}
	}
	if f == nil {
		return "", firstErr
	}
	f.WriteString("\n")
	if err := f.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return f.Name(), firstErr
}

func formatValue(val []float64) string {
	switch len(val) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("%g", val[0])
	}
	items := make([]string, len(val))
	for i, v := range val {
		items[i] = fmt.Sprintf("%g", v)
	}
	// Arrays are space separated to keep one CSV column per variable.
	return strings.Join(items, " ")
}

package frontier

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"
)

const (
	studiesDir     = "studies"
	configFile     = "config.json"
	studyFile      = "study.json"
	reportFile     = "report.md"
	dirTimeLayout  = "20060102_150405"
	topSampledKept = 200
)

// StudyEntry identifies a persisted study on disk.
type StudyEntry struct {
	Name      string    // directory name under studies/
	Dir       string    // absolute directory
	CreatedAt time.Time // parsed from the directory suffix
}

// StudyDirName builds the directory name for a study: the tickers, sanitized
// to filename-safe characters, suffixed with the creation timestamp.
func StudyDirName(tickers []string, at time.Time) string {
	safe := strings.Join(tickers, "_")
	safe = strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '-'
		}
	}, safe)
	return safe + "_" + at.Format(dirTimeLayout)
}

// SaveStudy persists a study under baseDir/studies/: the configuration and
// summary as JSON, the aligned prices, returns, covariance, correlation,
// frontier and the best sampled portfolios as CSV. It returns the study
// directory.
func SaveStudy(baseDir string, study *Study) (string, error) {
	dir := filepath.Join(baseDir, studiesDir, StudyDirName(study.Tickers, study.CreatedAt))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating study directory: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, configFile), study.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, studyFile), study); err != nil {
		return "", err
	}

	if err := writePricesCSV(filepath.Join(dir, "prices.csv"), study, study.Prices, 0); err != nil {
		return "", err
	}
	if err := writePricesCSV(filepath.Join(dir, "returns.csv"), study, study.Returns, 1); err != nil {
		return "", err
	}
	if err := writeMatrixCSV(filepath.Join(dir, "covariance.csv"), study.Tickers, study.Cov); err != nil {
		return "", err
	}
	if err := writeMatrixCSV(filepath.Join(dir, "correlation.csv"), study.Tickers, study.Corr); err != nil {
		return "", err
	}
	if len(study.Frontier) > 0 {
		if err := writeFrontierCSV(filepath.Join(dir, "frontier_weights.csv"), study); err != nil {
			return "", err
		}
	}
	if len(study.Sampled) > 0 {
		if err := writeSampledCSV(filepath.Join(dir, "portfolios_mc.csv"), study); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// SaveReport writes the rendered markdown report into a study directory.
func SaveReport(dir, report string) error {
	return os.WriteFile(filepath.Join(dir, reportFile), []byte(report), 0644)
}

// ListStudies returns the studies persisted under baseDir, newest first.
func ListStudies(baseDir string) ([]StudyEntry, error) {
	root := filepath.Join(baseDir, studiesDir)
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing studies: %w", err)
	}

	var studies []StudyEntry
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		i := strings.LastIndex(name, "_")
		if i <= 0 {
			continue
		}
		// The timestamp spans the last two underscore separated fields.
		i = strings.LastIndex(name[:i], "_")
		if i < 0 {
			continue
		}
		at, err := time.ParseInLocation(dirTimeLayout, name[i+1:], time.Local)
		if err != nil {
			continue
		}
		studies = append(studies, StudyEntry{Name: name, Dir: filepath.Join(root, name), CreatedAt: at})
	}
	sort.Slice(studies, func(i, j int) bool { return studies[i].CreatedAt.After(studies[j].CreatedAt) })
	return studies, nil
}

// LoadStudy reads the summary of a persisted study. Matrices and sampled
// portfolios stay on disk in their CSV files.
func LoadStudy(dir string) (*Study, error) {
	content, err := os.ReadFile(filepath.Join(dir, studyFile))
	if err != nil {
		return nil, fmt.Errorf("reading study: %w", err)
	}
	var study Study
	if err := json.Unmarshal(content, &study); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", studyFile, err)
	}
	return &study, nil
}

// FindStudy resolves a study reference: a directory name under studies/, an
// absolute or relative path, or empty for the most recent study.
func FindStudy(baseDir, ref string) (string, error) {
	if ref == "" {
		entries, err := ListStudies(baseDir)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "", fmt.Errorf("no studies found under %s", filepath.Join(baseDir, studiesDir))
		}
		return entries[0].Dir, nil
	}
	candidates := []string{ref, filepath.Join(baseDir, studiesDir, ref)}
	for _, dir := range candidates {
		if _, err := os.Stat(filepath.Join(dir, studyFile)); err == nil {
			return dir, nil
		}
	}
	return "", fmt.Errorf("study %q not found", ref)
}

func writeJSON(path string, v any) error {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, content, 0644)
}

// writePricesCSV writes a dated matrix (prices or returns). dateOffset shifts
// into the study dates: returns start one day after the first price.
func writePricesCSV(path string, study *Study, m *mat.Dense, dateOffset int) error {
	rows, cols := m.Dims()
	records := make([][]string, 0, rows+1)
	records = append(records, append([]string{"date"}, study.Tickers...))
	for i := 0; i < rows; i++ {
		rec := make([]string, 0, cols+1)
		rec = append(rec, study.Dates[i+dateOffset].String())
		for j := 0; j < cols; j++ {
			rec = append(rec, formatFloat(m.At(i, j)))
		}
		records = append(records, rec)
	}
	return writeCSV(path, records)
}

func writeMatrixCSV(path string, tickers []string, m *mat.SymDense) error {
	n := m.SymmetricDim()
	records := make([][]string, 0, n+1)
	records = append(records, append([]string{""}, tickers...))
	for i := 0; i < n; i++ {
		rec := make([]string, 0, n+1)
		rec = append(rec, tickers[i])
		for j := 0; j < n; j++ {
			rec = append(rec, formatFloat(m.At(i, j)))
		}
		records = append(records, rec)
	}
	return writeCSV(path, records)
}

func writeFrontierCSV(path string, study *Study) error {
	header := append([]string{"target_return", "volatility"}, study.Tickers...)
	records := [][]string{header}
	for _, p := range study.Frontier {
		rec := []string{formatFloat(p.TargetReturn), formatFloat(p.Volatility)}
		for _, w := range p.Weights {
			rec = append(rec, formatFloat(w))
		}
		records = append(records, rec)
	}
	return writeCSV(path, records)
}

// writeSampledCSV keeps only the best sampled portfolios by Sharpe: the full
// sample is large and only the top of it is worth keeping.
func writeSampledCSV(path string, study *Study) error {
	sampled := make([]SampledPortfolio, len(study.Sampled))
	copy(sampled, study.Sampled)
	sort.Slice(sampled, func(i, j int) bool { return sampled[i].Sharpe > sampled[j].Sharpe })
	if len(sampled) > topSampledKept {
		sampled = sampled[:topSampledKept]
	}

	header := append([]string{"return", "volatility", "sharpe"}, study.Tickers...)
	records := [][]string{header}
	for _, p := range sampled {
		rec := []string{formatFloat(p.Return), formatFloat(p.Volatility), formatFloat(p.Sharpe)}
		for _, w := range p.Weights {
			rec = append(rec, formatFloat(w))
		}
		records = append(records, rec)
	}
	return writeCSV(path, records)
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

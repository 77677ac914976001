package cancellations

import (
	"regexp"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const indexFile = "index.json"

var jsonSuffix = regexp.MustCompile(`(?i)\.json$`)

// LineFile is a selectable per-line data file of one year.
type LineFile struct {
	File  string `json:"file"`
	Label string `json:"label"`
}

// FileToLabel turns "S1-S11.json" into "S1–S11".
func FileToLabel(file string) string {
	return strings.ReplaceAll(jsonSuffix.ReplaceAllString(file, ""), "-", "–")
}

// Collators keep scratch buffers and are not safe for concurrent use.
var collators = sync.Pool{
	New: func() any {
		return collate.New(language.Und, collate.Numeric, collate.Loose)
	},
}

// NaturalCompare orders strings with embedded numbers numerically and ignores
// case, so "S2" < "S11" and "2025" < "2100". Collation ties fall back to
// byte order to keep the result total.
func NaturalCompare(a, b string) int {
	collator := collators.Get().(*collate.Collator)
	defer collators.Put(collator)

	if result := collator.CompareString(a, b); result != 0 {
		return result
	}
	return strings.Compare(a, b)
}

// SortYears returns a naturally sorted copy.
func SortYears(years []string) []string {
	sorted := slices.Clone(years)
	slices.SortStableFunc(sorted, NaturalCompare)
	return sorted
}

// LatestYear is the greatest year in natural order, or "" for none.
func LatestYear(years []string) string {
	if len(years) == 0 {
		return ""
	}
	sorted := SortYears(years)
	return sorted[len(sorted)-1]
}

// ToLineFiles drops non-data files and the index itself, then sorts by label.
func ToLineFiles(files []string) []LineFile {
	lineFiles := make([]LineFile, 0, len(files))
	for _, file := range files {
		if !strings.HasSuffix(file, ".json") || file == indexFile {
			continue
		}
		lineFiles = append(lineFiles, LineFile{File: file, Label: FileToLabel(file)})
	}

	slices.SortStableFunc(lineFiles, func(a, b LineFile) int {
		return NaturalCompare(a.Label, b.Label)
	})
	return lineFiles
}

func FileNames(lineFiles []LineFile) []string {
	names := make([]string, len(lineFiles))
	for i, lineFile := range lineFiles {
		names[i] = lineFile.File
	}
	return names
}

// NormalizeSelection dedupes and naturally sorts a file selection. The result
// is never nil.
func NormalizeSelection(files []string) []string {
	seen := make(map[string]struct{}, len(files))
	normalized := make([]string, 0, len(files))
	for _, file := range files {
		if _, ok := seen[file]; ok {
			continue
		}
		seen[file] = struct{}{}
		normalized = append(normalized, file)
	}

	slices.SortStableFunc(normalized, NaturalCompare)
	return normalized
}

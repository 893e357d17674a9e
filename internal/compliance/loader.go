package compliance

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	id "exportdocs/pkg/domain"
	pstrings "exportdocs/pkg/platform/strings"
)

const (
	minPrefixLen = 2
	maxPrefixLen = 8
)

//go:embed matrix.yaml
var defaultTable []byte

type tableFile struct {
	Baseline []string   `yaml:"baseline"`
	Entries  []tableRow `yaml:"entries"`
}

type tableRow struct {
	Prefix       string     `yaml:"prefix"`
	Description  string     `yaml:"description"`
	DueDiligence bool       `yaml:"due_diligence"`
	Documents    []string   `yaml:"documents"`
	Fields       []fieldRow `yaml:"fields"`
}

type fieldRow struct {
	Document string   `yaml:"document"`
	Field    string   `yaml:"field"`
	OneOf    []string `yaml:"one_of"`
}

var (
	defaultOnce   sync.Once
	defaultMatrix *Matrix
)

// Default returns the embedded requirement table.
func Default() *Matrix {
	defaultOnce.Do(func() {
		m, err := Load(bytes.NewReader(defaultTable))
		if err != nil {
			panic(fmt.Sprintf("compliance: embedded matrix is invalid: %v", err))
		}
		defaultMatrix = m
	})
	return defaultMatrix
}

// LoadFile reads a requirement table from path. An empty path returns the
// embedded default.
func LoadFile(path string) (*Matrix, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open compliance matrix: %w", err)
	}
	defer f.Close()
	m, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load compliance matrix %s: %w", path, err)
	}
	return m, nil
}

// Load parses and validates a YAML requirement table.
func Load(r io.Reader) (*Matrix, error) {
	var tf tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&tf); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	baseline, err := parseTypes(tf.Baseline)
	if err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}
	if len(baseline) == 0 {
		return nil, fmt.Errorf("baseline document set is empty")
	}

	m := &Matrix{entries: make(map[string]entry, len(tf.Entries)), baseline: baseline}
	for i, row := range tf.Entries {
		e, err := row.toEntry()
		if err != nil {
			return nil, fmt.Errorf("entry %d (%q): %w", i, row.Prefix, err)
		}
		if _, dup := m.entries[e.prefix]; dup {
			return nil, fmt.Errorf("entry %d: duplicate prefix %q", i, e.prefix)
		}
		m.entries[e.prefix] = e
		if len(e.prefix) > m.maxLen {
			m.maxLen = len(e.prefix)
		}
	}
	return m, nil
}

func (row tableRow) toEntry() (entry, error) {
	prefix := NormalizeCode(row.Prefix)
	if prefix != row.Prefix || len(prefix) < minPrefixLen || len(prefix) > maxPrefixLen {
		return entry{}, fmt.Errorf("prefix must be %d to %d digits", minPrefixLen, maxPrefixLen)
	}
	docs, err := parseTypes(row.Documents)
	if err != nil {
		return entry{}, err
	}
	if len(docs) == 0 {
		return entry{}, fmt.Errorf("no required documents")
	}

	e := entry{prefix: prefix, description: row.Description, dueDiligence: row.DueDiligence, documents: docs}
	for _, fr := range row.Fields {
		dt, err := id.ParseDocumentType(fr.Document)
		if err != nil {
			return entry{}, fmt.Errorf("field rule: %w", err)
		}
		field := Field(fr.Field)
		if !field.IsValid() {
			return entry{}, fmt.Errorf("field rule: unknown field %q", fr.Field)
		}
		e.fields = append(e.fields, FieldRequirement{
			DocumentType: dt,
			Field:        field,
			OneOf:        pstrings.NormalizeList(fr.OneOf),
		})
	}
	return e, nil
}

func parseTypes(raw []string) ([]id.DocumentType, error) {
	names := pstrings.NormalizeList(raw)
	out := make([]id.DocumentType, 0, len(names))
	for _, n := range names {
		t, err := id.ParseDocumentType(n)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

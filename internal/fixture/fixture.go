// Package fixture loads datasets from JSON or YAML files. Parsing is
// lenient the way the console's loosely typed records require:
// missing or non-numeric numeric fields read as zero and are
// reported as issues instead of failing the load.
package fixture

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/wesm/inventoryview/internal/catalog"
)

//go:embed seed.json
var seedJSON []byte

// SupportedMajor is the dataset format major version this build
// reads.
const SupportedMajor = "v1"

// ErrUnsupportedVersion is returned for datasets whose format
// version has a different major version.
var ErrUnsupportedVersion = errors.New("unsupported dataset version")

// Format is a dataset file encoding.
type Format int

const (
	JSON Format = iota
	YAML
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return 0, fmt.Errorf(
		"unknown dataset extension %q: use .json, .yaml, or .yml",
		filepath.Ext(path),
	)
}

// Result is a loaded dataset plus the repairs made while loading.
type Result struct {
	Dataset catalog.Dataset
	Issues  []catalog.Issue
}

// Seed returns the built-in demo dataset.
func Seed() (Result, error) {
	res, err := Parse(seedJSON, JSON)
	if err != nil {
		return Result{}, fmt.Errorf("parsing seed dataset: %w", err)
	}
	return res, nil
}

// Load reads and parses the dataset at path.
func Load(path string) (Result, error) {
	format, err := FormatFor(path)
	if err != nil {
		return Result{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading dataset: %w", err)
	}
	res, err := Parse(data, format)
	if err != nil {
		return Result{}, fmt.Errorf("parsing %s: %w",
			filepath.Base(path), err)
	}
	return res, nil
}

// Parse decodes a dataset, validates ids, and normalizes values.
func Parse(data []byte, format Format) (Result, error) {
	if format == YAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return Result{}, err
		}
		data = converted
	}
	if !gjson.ValidBytes(data) {
		return Result{}, errors.New("invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Result{}, errors.New("dataset must be an object")
	}

	version, err := checkVersion(root.Get("version").String())
	if err != nil {
		return Result{}, err
	}

	p := &parser{}
	ds := p.dataset(root)
	ds.Version = version
	if err := ds.Validate(); err != nil {
		return Result{}, err
	}
	issues := append(p.issues, ds.Normalize()...)
	return Result{Dataset: ds, Issues: issues}, nil
}

// checkVersion accepts an empty version as the current format and
// otherwise requires a semver with the supported major.
func checkVersion(v string) (string, error) {
	if v == "" {
		return SupportedMajor + ".0.0", nil
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", fmt.Errorf("invalid dataset version %q", v)
	}
	if semver.Major(v) != SupportedMajor {
		return "", fmt.Errorf("%w: %s (want %s.x)",
			ErrUnsupportedVersion, v, SupportedMajor)
	}
	return semver.Canonical(v), nil
}

// yamlToJSON re-encodes a YAML document as JSON so both formats
// share one lenient field reader. Scalars YAML would reinterpret,
// timestamps and leading-zero integers such as zip codes, keep their
// source text.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding YAML: %w", err)
	}
	v, err := yamlValue(&doc)
	if err != nil {
		return nil, fmt.Errorf("converting YAML: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("converting YAML: %w", err)
	}
	return out, nil
}

func yamlValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0])
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		if err := yamlMerge(out, n); err != nil {
			return nil, err
		}
		return out, nil
	}
	return yamlScalar(n)
}

// yamlMerge copies a mapping's pairs into out, expanding "<<" merge
// keys first so explicit keys win.
func yamlMerge(out map[string]any, n *yaml.Node) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if !isMergeKey(k) {
			continue
		}
		if v.Kind == yaml.AliasNode {
			v = v.Alias
		}
		srcs := []*yaml.Node{v}
		if v.Kind == yaml.SequenceNode {
			srcs = v.Content
		}
		for _, src := range srcs {
			if src.Kind == yaml.AliasNode {
				src = src.Alias
			}
			if src.Kind != yaml.MappingNode {
				return fmt.Errorf("line %d: merge value is not a mapping",
					v.Line)
			}
			if err := yamlMerge(out, src); err != nil {
				return err
			}
		}
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if isMergeKey(k) {
			continue
		}
		val, err := yamlValue(v)
		if err != nil {
			return err
		}
		out[k.Value] = val
	}
	return nil
}

func isMergeKey(k *yaml.Node) bool {
	return k.Kind == yaml.ScalarNode && k.Value == "<<" &&
		(k.Tag == "" || k.Tag == "!" || k.ShortTag() == "!!merge")
}

func yamlScalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!str", "!!timestamp", "!!binary":
		return n.Value, nil
	case "!!int":
		digits := strings.TrimLeft(n.Value, "+-")
		if len(digits) > 1 && digits[0] == '0' {
			return n.Value, nil
		}
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, fmt.Errorf("line %d: %w", n.Line, err)
	}
	return v, nil
}

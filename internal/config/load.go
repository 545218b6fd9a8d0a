package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads, parses and validates a configuration file. On failure the
// returned error is an *Error listing every violation with its field path.
func Load(path string) (*Config, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	return FromMap(doc)
}

// LoadFiles reads a base configuration file and deep-merges the override
// files onto it in order before validating. Later overrides win. This is how
// experiment variants are expressed: a shared base document plus a small
// per-experiment file overriding a handful of keys.
func LoadFiles(base string, overrides ...string) (*Config, error) {
	doc, err := readDocument(base)
	if err != nil {
		return nil, err
	}
	for _, path := range overrides {
		override, err := readDocument(path)
		if err != nil {
			return nil, err
		}
		doc = Merge(doc, override)
	}
	return FromMap(doc)
}

// FromMap builds a validated configuration from a raw in-memory mapping,
// applying defaults for absent keys. Unknown keys and wrong types fail with
// schema violations instead of being silently accepted.
func FromMap(doc map[string]any) (*Config, error) {
	cfg := Default()
	if len(doc) > 0 {
		buf, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to encode config mapping: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(buf))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, decodeError(err)
		}
	}
	if vs := Validate(cfg); len(vs) > 0 {
		return nil, &Error{Violations: vs}
	}
	return cfg, nil
}

// readDocument parses a file into a raw mapping without validating it
func readDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Violations: []Violation{{
			Kind:    KindParse,
			Message: fmt.Sprintf("failed to parse config file %s: %v", path, err),
		}}}
	}
	return doc, nil
}

// decodeError converts a yaml decoding failure into the violation taxonomy.
// Type mismatches and unknown keys come back as a yaml.TypeError with one
// message per offending field; anything else is a syntax problem.
func decodeError(err error) error {
	var terr *yaml.TypeError
	if errors.As(err, &terr) {
		vs := make([]Violation, 0, len(terr.Errors))
		for _, msg := range terr.Errors {
			vs = append(vs, Violation{Kind: KindSchema, Message: msg})
		}
		return &Error{Violations: vs}
	}
	return &Error{Violations: []Violation{{
		Kind:    KindParse,
		Message: err.Error(),
	}}}
}

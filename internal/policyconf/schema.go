package policyconf

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// This file implements spec §6.3's YAML schema with strict unknown-field
// validation (spec §4.3: "Unknown top-level or nested fields in any layer
// fail the process with exit code 2"). Plain fields are validated by
// decoding through yaml.Decoder.KnownFields(true); the polymorphic shapes
// (match variants, predicate shorthand, allowlist-entry shorthand) implement
// yaml.Unmarshaler themselves and replicate the same strictness by hand via
// strictMappingKeys, since a custom Unmarshaler takes the node over from the
// decoder's own reflection-based field checking.

const currentConfigVersion = 1

// rawDoc is either a self-contained rules file or a manifest of includes.
// Both forms may appear in the same file: a manifest may also carry its own
// rules/allowlist entries alongside `include`.
type rawDoc struct {
	Version         int               `yaml:"version"`
	Include         []string          `yaml:"include,omitempty"`
	DefaultDecision string            `yaml:"default_decision,omitempty"`
	SafetyLevel     string            `yaml:"safety_level,omitempty"`
	TrustLevel      string            `yaml:"trust_level,omitempty"`
	Allowlists      rawAllowlists     `yaml:"allowlists,omitempty"`
	Rules           []rawRule         `yaml:"rules,omitempty"`
	DisableRules    []string          `yaml:"disable_rules,omitempty"`
}

type rawAllowlists struct {
	Commands []rawAllowlistEntry `yaml:"commands,omitempty"`
}

// rawAllowlistEntry accepts either a bare string ("ls") or an object
// ({command, trust, reason}), per spec §6.3.
type rawAllowlistEntry struct {
	Command string
	Trust   string
	Reason  string
}

func (e *rawAllowlistEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		e.Command = node.Value
		e.Trust = ""
		e.Reason = ""
		return nil
	}
	if err := strictMappingKeys(node, "allowlist entry", "command", "trust", "reason"); err != nil {
		return err
	}
	var aux struct {
		Command string `yaml:"command"`
		Trust   string `yaml:"trust"`
		Reason  string `yaml:"reason"`
	}
	if err := node.Decode(&aux); err != nil {
		return err
	}
	e.Command = aux.Command
	e.Trust = aux.Trust
	e.Reason = aux.Reason
	return nil
}

type rawRule struct {
	ID       string  `yaml:"id"`
	Level    string  `yaml:"level"`
	Match    rawMatch `yaml:"match"`
	Decision string  `yaml:"decision"`
	Reason   string  `yaml:"reason"`
	Context  string  `yaml:"context,omitempty"`
}

// rawMatch is the closed sum of spec §3.3's three matcher variants.
// Exactly one of command/pipeline/redirect must be present.
type rawMatch struct {
	Kind     MatchKind
	Command  *rawCommandMatch
	Pipeline *rawPipelineMatch
	Redirect *rawRedirectMatch
}

func (m *rawMatch) UnmarshalYAML(node *yaml.Node) error {
	if err := strictMappingKeys(node, "match", "command", "pipeline", "redirect"); err != nil {
		return err
	}
	var seen int
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]
		switch key {
		case "command":
			var c rawCommandMatch
			if err := c.unmarshal(val); err != nil {
				return err
			}
			m.Command = &c
			m.Kind = MatchCommand
			seen++
		case "pipeline":
			var p rawPipelineMatch
			if err := p.unmarshal(val); err != nil {
				return err
			}
			m.Pipeline = &p
			m.Kind = MatchPipeline
			seen++
		case "redirect":
			var r rawRedirectMatch
			if err := r.unmarshal(val); err != nil {
				return err
			}
			m.Redirect = &r
			m.Kind = MatchRedirect
			seen++
		}
	}
	if seen != 1 {
		return fmt.Errorf("match: exactly one of command/pipeline/redirect is required, got %d", seen)
	}
	return nil
}

type rawCommandMatch struct {
	Name  rawStringPred   `yaml:"name"`
	Flags *rawStringPred  `yaml:"flags,omitempty"`
	Args  *rawStringPred  `yaml:"args,omitempty"`
}

func (c *rawCommandMatch) unmarshal(node *yaml.Node) error {
	if err := strictMappingKeys(node, "command match", "name", "flags", "args"); err != nil {
		return err
	}
	return node.Decode(c)
}

type rawPipelineMatch struct {
	Stages []rawStringPred `yaml:"stages"`
}

func (p *rawPipelineMatch) unmarshal(node *yaml.Node) error {
	if err := strictMappingKeys(node, "pipeline match", "stages"); err != nil {
		return err
	}
	return node.Decode(p)
}

type rawRedirectMatch struct {
	Op     string         `yaml:"op,omitempty"`
	Target *rawStringPred `yaml:"target,omitempty"`
}

func (r *rawRedirectMatch) unmarshal(node *yaml.Node) error {
	if err := strictMappingKeys(node, "redirect match", "op", "target"); err != nil {
		return err
	}
	return node.Decode(r)
}

// rawStringPred accepts either a bare string (a literal) or an object with
// exactly one of any_of/all_of/none_of/starts_with/glob, per spec §3.3.
type rawStringPred struct {
	Literal    string
	AnyOf      []string
	AllOf      []string
	NoneOf     []string
	StartsWith string
	Glob       string
}

func (p *rawStringPred) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		p.Literal = node.Value
		return nil
	}
	if err := strictMappingKeys(node, "predicate", "any_of", "all_of", "none_of", "starts_with", "glob"); err != nil {
		return err
	}
	var aux struct {
		AnyOf      []string `yaml:"any_of,omitempty"`
		AllOf      []string `yaml:"all_of,omitempty"`
		NoneOf     []string `yaml:"none_of,omitempty"`
		StartsWith string   `yaml:"starts_with,omitempty"`
		Glob       string   `yaml:"glob,omitempty"`
	}
	if err := node.Decode(&aux); err != nil {
		return err
	}
	p.AnyOf, p.AllOf, p.NoneOf = aux.AnyOf, aux.AllOf, aux.NoneOf
	p.StartsWith, p.Glob = aux.StartsWith, aux.Glob
	return nil
}

func (p rawStringPred) toStringPred() StringPred {
	return StringPred{
		Literal: p.Literal, AnyOf: p.AnyOf, AllOf: p.AllOf, NoneOf: p.NoneOf,
		StartsWith: p.StartsWith, Glob: p.Glob,
	}
}

func (p rawStringPred) toStringSetPred() StringSetPred {
	return StringSetPred{
		Literal: p.Literal, AnyOf: p.AnyOf, AllOf: p.AllOf, NoneOf: p.NoneOf,
		StartsWith: p.StartsWith, Glob: p.Glob,
	}
}

// strictMappingKeys rejects any mapping key not present in allowed, giving
// custom Unmarshaler implementations the same strictness that
// yaml.Decoder.KnownFields(true) gives plain tagged structs.
func strictMappingKeys(node *yaml.Node, typeName string, allowed ...string) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%s: expected a mapping, line %d", typeName, node.Line)
	}
	allowedSet := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		allowedSet[a] = true
	}
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if !allowedSet[key] {
			return fmt.Errorf("%s: unknown field %q at line %d", typeName, key, node.Content[i].Line)
		}
	}
	return nil
}

// decodeStrict parses data as a rawDoc using strict field validation at the
// top level (KnownFields catches typos like `saftey_level`), while the
// embedded custom Unmarshalers enforce the same for the nested shapes.
func decodeStrict(data []byte) (*rawDoc, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc rawDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

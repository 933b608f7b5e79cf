package pricing

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RuleSource delivers raw round-off rule records in bracket priority order.
type RuleSource interface {
	LoadRules(ctx context.Context) ([]RuleRecord, error)
}

// FileSource reads rule records from a YAML document:
//
//	rules:
//	  - from_range: 0
//	    to_range: 500
//	    prices: [99, 199, 299]
type FileSource struct {
	Path string
}

type ruleFile struct {
	Rules []RuleRecord `yaml:"rules"`
}

// LoadRules implements RuleSource.
func (s FileSource) LoadRules(ctx context.Context) ([]RuleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("pricing: read rules file: %w", err)
	}
	var doc ruleFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("pricing: parse rules file: %w", err)
	}
	return doc.Rules, nil
}

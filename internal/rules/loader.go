package rules

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"golang-alert-ingestion-service/internal/models"
	"golang-alert-ingestion-service/pkg/errors"
)

// senderRuleFile is the on-disk form of a sender rule.
type senderRuleFile struct {
	Name                string                       `mapstructure:"name"`
	SenderAddress       string                       `mapstructure:"sender_address"`
	SubjectPatterns     []string                     `mapstructure:"subject_patterns"`
	FixedDirection      string                       `mapstructure:"fixed_direction"`
	DefaultCurrency     string                       `mapstructure:"default_currency"`
	ExtractionOverrides map[string][]models.RuleSpec `mapstructure:"extraction_overrides"`
}

type rulesFile struct {
	SenderRules []senderRuleFile `mapstructure:"sender_rules"`
}

// LoadFile reads sender rules from a YAML, JSON or TOML file with a
// top-level sender_rules list.
func LoadFile(path string) ([]models.SenderRule, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.SourceError(errors.CodeFileNotFound, path, 0, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.SourceError(errors.CodeInvalidFormat, path, 0, err)
	}

	var file rulesFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, errors.SourceError(errors.CodeInvalidFormat, path, 0, err)
	}

	rules := make([]models.SenderRule, 0, len(file.SenderRules))
	for i, raw := range file.SenderRules {
		rule, err := raw.toModel()
		if err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig,
				fmt.Sprintf("sender_rules[%d]", i), raw.Name, err).WithContext("file", path)
		}
		if err := rule.Validate(); err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig,
				fmt.Sprintf("sender_rules[%d]", i), raw.Name, err).WithContext("file", path)
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

// LoadRegistry returns the built-in registry merged with the rules in path.
// An empty path yields the built-in rules only.
func LoadRegistry(path string) (*Registry, error) {
	registry := DefaultRegistry()
	if strings.TrimSpace(path) == "" {
		return registry, nil
	}

	loaded, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return registry.Merge(loaded...)
}

func (f senderRuleFile) toModel() (models.SenderRule, error) {
	rule := models.SenderRule{
		Name:            strings.TrimSpace(f.Name),
		SenderAddress:   strings.TrimSpace(f.SenderAddress),
		SubjectPatterns: f.SubjectPatterns,
		DefaultCurrency: strings.ToUpper(strings.TrimSpace(f.DefaultCurrency)),
	}

	if strings.TrimSpace(f.FixedDirection) != "" {
		direction, err := models.ParseDirection(f.FixedDirection)
		if err != nil {
			return rule, err
		}
		rule.FixedDirection = &direction
	}

	if len(f.ExtractionOverrides) > 0 {
		rule.ExtractionOverrides = make(map[models.FieldName][]models.RuleSpec, len(f.ExtractionOverrides))
		for field, specs := range f.ExtractionOverrides {
			rule.ExtractionOverrides[models.FieldName(strings.ToLower(field))] = specs
		}
	}

	return rule, nil
}

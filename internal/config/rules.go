package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/lorrc/sla-notifier/internal/core/domain"
	apperrors "github.com/lorrc/sla-notifier/internal/core/errors"
	"gopkg.in/yaml.v3"
)

// Rules is the YAML lookup table file. Keys are kept verbatim: lookups match
// them exactly, so case and accents matter.
type Rules struct {
	Ownership         map[string]domain.Ownership  `yaml:"ownership"`
	SLA               map[string]domain.SlaTracked `yaml:"sla"`
	DisplayNames      map[string]string            `yaml:"display_names"`
	Recipients        map[string]string            `yaml:"recipients"`
	FallbackRecipient string                       `yaml:"fallback_recipient"`
	Columns           *domain.ColumnMap            `yaml:"columns,omitempty"`
}

// DefaultRules are the mappings used when no rules file is configured.
func DefaultRules() Rules {
	return Rules{
		Ownership: map[string]domain.Ownership{
			"Liberado para cliente":          domain.OwnershipResolved,
			"Resolvido":                      domain.OwnershipResolved,
			"Programando":                    domain.OwnershipVendor,
			"Atendimento pendente (suporte)": domain.OwnershipVendor,
			"Verificando":                    domain.OwnershipVendor,
			"Aguardando testes internos":     domain.OwnershipVendor,
			"Aguardando liberacao oficial":   domain.OwnershipVendor,
			"Retorno de homologacao":         domain.OwnershipVendor,
			"Homologando":                    domain.OwnershipInternal,
			"Ag. Confirmação de Orçamento":   domain.OwnershipInternal,
			"Aguardando detalhamento":        domain.OwnershipInternal,
			"Aguardando informações cliente": domain.OwnershipInternal,
		},
		SLA: map[string]domain.SlaTracked{
			"CORRECAO": domain.SlaYes,
			"MELHORIA": domain.SlaNo,
			"PROJETO":  domain.SlaNo,
			"DUVIDA":   domain.SlaNo,
		},
		DisplayNames: map[string]string{
			"usuario.jsilva":    "JOÃO SILVA",
			"usuario.moliveira": "MARIA OLIVEIRA",
			"usuario.psantos":   "PEDRO SANTOS",
			"usuario.ti":        "ANALISTA TI",
		},
		Recipients: map[string]string{
			"JOÃO SILVA":     defaultMailbox,
			"MARIA OLIVEIRA": defaultMailbox,
			"PEDRO SANTOS":   defaultMailbox,
			"ANALISTA TI":    defaultMailbox,
		},
		FallbackRecipient: defaultMailbox,
	}
}

// LoadRules reads a rules file. An empty path returns DefaultRules.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates rules YAML.
func ParseRules(data []byte) (Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidRules, err)
	}
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

// Validate rejects values outside the ownership and SLA vocabularies.
func (r Rules) Validate() error {
	var bad []string
	for status, o := range r.Ownership {
		if !o.IsValid() || o == domain.OwnershipUnknown {
			bad = append(bad, fmt.Sprintf("ownership[%q]=%q", status, o))
		}
	}
	for category, s := range r.SLA {
		if !s.IsValid() {
			bad = append(bad, fmt.Sprintf("sla[%q]=%q", category, s))
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return fmt.Errorf("%w: invalid values %v", apperrors.ErrInvalidRules, bad)
	}
	return nil
}

// Tables builds the lookup tables used by the pipeline.
func (r Rules) Tables() *domain.LookupTables {
	return domain.NewLookupTables(r.Ownership, r.SLA, r.DisplayNames, r.Recipients, r.FallbackRecipient)
}

// ColumnMap returns the configured headers, or the export defaults.
func (r Rules) ColumnMap() domain.ColumnMap {
	if r.Columns == nil {
		return domain.DefaultColumnMap()
	}
	return *r.Columns
}

package services

import (
	"github.com/tvqhuy/co-engine/pkg/domain/entities"
)

// OriginRuleSet decides whether an allocation counts as originating.
// An allocation qualifies when its lot carries an origin certificate or
// its origin country belongs to the qualifying set of the trade
// agreement being applied.
type OriginRuleSet struct {
	qualifyingCountries map[string]bool
}

// NewOriginRuleSet creates a rule set for the given qualifying countries.
func NewOriginRuleSet(qualifyingCountries []string) *OriginRuleSet {
	set := make(map[string]bool, len(qualifyingCountries))
	for _, c := range qualifyingCountries {
		set[c] = true
	}
	return &OriginRuleSet{qualifyingCountries: set}
}

// IsOriginating reports whether an allocation's source lot counts as
// originating material.
func (rs *OriginRuleSet) IsOriginating(alloc *entities.Allocation) bool {
	if alloc.HasOriginCertificate {
		return true
	}
	return rs.qualifyingCountries[alloc.OriginCountry]
}

// QualifyingCountries returns the configured qualifying countries.
func (rs *OriginRuleSet) QualifyingCountries() []string {
	var countries []string
	for c := range rs.qualifyingCountries {
		countries = append(countries, c)
	}
	return countries
}

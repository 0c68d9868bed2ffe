package access

import (
	"sampletrack/internal/domain"
	"sampletrack/internal/stage"
)

var lookupFeatures = []string{
	domain.FeatureBrands,
	domain.FeatureSeasons,
	domain.FeatureDivisions,
	domain.FeatureProductCategories,
	domain.FeatureSampleTypes,
}

// DefaultGrants is the permission matrix written by the seeder. Every editor
// role reads and writes every stage and the sample list; the stage owner also
// approves. Editors read lookups and analytics. ADMIN-class roles need no rows.
func DefaultGrants() []Grant {
	var out []Grant
	for _, r := range domain.AllRoles {
		if !r.IsEditor() {
			continue
		}
		for _, s := range stage.All() {
			out = append(out, Grant{
				Role:       r,
				FeatureKey: s.Feature,
				CanRead:    true,
				CanWrite:   true,
				CanApprove: s.Owner == r,
			})
		}
		out = append(out, Grant{
			Role:       r,
			FeatureKey: domain.FeatureSamples,
			CanRead:    true,
			CanWrite:   true,
		})
		out = append(out, Grant{Role: r, FeatureKey: domain.FeatureAnalytics, CanRead: true})
		for _, f := range lookupFeatures {
			out = append(out, Grant{Role: r, FeatureKey: f, CanRead: true})
		}
	}
	return out
}

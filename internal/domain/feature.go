package domain

import "strings"

// Action is one of the three permission flags on a RolePermission row.
type Action string

const (
	ActionRead    Action = "read"
	ActionWrite   Action = "write"
	ActionApprove Action = "approve"
)

// ParseAction returns the action and whether it is known.
func ParseAction(s string) (Action, bool) {
	switch a := Action(strings.ToLower(s)); a {
	case ActionRead, ActionWrite, ActionApprove:
		return a, true
	default:
		return "", false
	}
}

// Feature keys. Stage features mirror the stage registry keys upper-cased.
const (
	FeaturePSI               = "PSI"
	FeatureSampleDevelopment = "SAMPLE_DEVELOPMENT"
	FeaturePCReview          = "PC_REVIEW"
	FeatureCosting           = "COSTING"
	FeatureShipmentToBrand   = "SHIPMENT_TO_BRAND"

	FeatureSamples           = "SAMPLES"
	FeatureBrands            = "BRANDS"
	FeatureSeasons           = "SEASONS"
	FeatureDivisions         = "DIVISIONS"
	FeatureProductCategories = "PRODUCT_CATEGORIES"
	FeatureSampleTypes       = "SAMPLE_TYPES"
	FeatureUsers             = "USERS"
	FeatureRoles             = "ROLES"
	FeatureAnalytics         = "ANALYTICS"
	FeatureAudit             = "AUDIT"
)

// FeatureGroup is used by the role access screen to group rows.
type FeatureGroup string

const (
	GroupStage  FeatureGroup = "stage"
	GroupLookup FeatureGroup = "lookup"
	GroupAdmin  FeatureGroup = "admin"
	GroupData   FeatureGroup = "data"
)

// FeatureInfo describes one access-control unit.
type FeatureInfo struct {
	Key   string       `json:"key"`
	Name  string       `json:"name"`
	Group FeatureGroup `json:"group"`
}

// Features is the ordered catalogue of every feature key.
var Features = []FeatureInfo{
	{Key: FeaturePSI, Name: "PSI", Group: GroupStage},
	{Key: FeatureSampleDevelopment, Name: "Sample Development", Group: GroupStage},
	{Key: FeaturePCReview, Name: "PC Review", Group: GroupStage},
	{Key: FeatureCosting, Name: "Costing", Group: GroupStage},
	{Key: FeatureShipmentToBrand, Name: "Shipment to Brand", Group: GroupStage},
	{Key: FeatureSamples, Name: "Samples", Group: GroupData},
	{Key: FeatureAnalytics, Name: "Analytics", Group: GroupData},
	{Key: FeatureBrands, Name: "Brands", Group: GroupLookup},
	{Key: FeatureSeasons, Name: "Seasons", Group: GroupLookup},
	{Key: FeatureDivisions, Name: "Divisions", Group: GroupLookup},
	{Key: FeatureProductCategories, Name: "Product Categories", Group: GroupLookup},
	{Key: FeatureSampleTypes, Name: "Sample Types", Group: GroupLookup},
	{Key: FeatureUsers, Name: "Users", Group: GroupAdmin},
	{Key: FeatureRoles, Name: "Role Access", Group: GroupAdmin},
	{Key: FeatureAudit, Name: "Audit Log", Group: GroupAdmin},
}

var featureIndex = func() map[string]FeatureInfo {
	m := make(map[string]FeatureInfo, len(Features))
	for _, f := range Features {
		m[f.Key] = f
	}
	return m
}()

// NormalizeFeature upper-cases a feature key.
func NormalizeFeature(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// IsKnownFeature reports whether key names a feature in the catalogue.
func IsKnownFeature(key string) bool {
	_, ok := featureIndex[NormalizeFeature(key)]
	return ok
}

// LookupFeature returns the catalogue entry for key.
func LookupFeature(key string) (FeatureInfo, bool) {
	f, ok := featureIndex[NormalizeFeature(key)]
	return f, ok
}

package models

// HierarchyNode is one entry of the four-level location hierarchy.
// Levels 3-5 (municipality, district, department) are static reference data
// loaded once per run; level 2 (colonias) can grow while a run is in progress.
type HierarchyNode struct {
	ID                 int      `json:"id"`
	Level              int      `json:"level"`
	DisplayName        string   `json:"display_name"`
	NormalizedName     string   `json:"normalized_name"`           // lowercase, accent-stripped
	PrefixStrippedName string   `json:"prefix_stripped_name"`      // normalized name minus "colonia"/"residencial"/articles
	AlternateNames     []string `json:"alternate_names,omitempty"` // normalized historical aliases
	ParentID           *int     `json:"parent_id,omitempty"`       // nil only for level 5
	Latitude           *float64 `json:"latitude,omitempty"`        // level 2 only
	Longitude          *float64 `json:"longitude,omitempty"`       // level 2 only
}

// Level constants
const (
	LevelNeighborhood = 2
	LevelMunicipality = 3
	LevelDistrict     = 4
	LevelDepartment   = 5
)

// HasCoordinates reports whether the node carries a usable coordinate pair.
func (n *HierarchyNode) HasCoordinates() bool {
	return n.Latitude != nil && n.Longitude != nil
}

// NameVariants returns all normalized forms to match against, most
// authoritative first: normalized name, prefix-stripped name, then aliases.
func (n *HierarchyNode) NameVariants() []string {
	variants := make([]string, 0, 2+len(n.AlternateNames))
	if n.NormalizedName != "" {
		variants = append(variants, n.NormalizedName)
	}
	if n.PrefixStrippedName != "" && n.PrefixStrippedName != n.NormalizedName {
		variants = append(variants, n.PrefixStrippedName)
	}
	variants = append(variants, n.AlternateNames...)
	return variants
}

// Ancestry holds one id per hierarchy level for a resolved node chain.
// A nil entry means the level is not resolved.
type Ancestry struct {
	Level2ID *int `json:"locGroup2Id"`
	Level3ID *int `json:"locGroup3Id"`
	Level4ID *int `json:"locGroup4Id"`
	Level5ID *int `json:"locGroup5Id"`
}

// IDAt returns the resolved id for the given level.
func (a Ancestry) IDAt(level int) *int {
	switch level {
	case LevelNeighborhood:
		return a.Level2ID
	case LevelMunicipality:
		return a.Level3ID
	case LevelDistrict:
		return a.Level4ID
	case LevelDepartment:
		return a.Level5ID
	}
	return nil
}

// SetIDAt sets the resolved id for the given level.
func (a *Ancestry) SetIDAt(level int, id int) {
	v := id
	switch level {
	case LevelNeighborhood:
		a.Level2ID = &v
	case LevelMunicipality:
		a.Level3ID = &v
	case LevelDistrict:
		a.Level4ID = &v
	case LevelDepartment:
		a.Level5ID = &v
	}
}

package matcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/location-matcher/app/models"
	"github.com/location-matcher/internal/discovery"
	"github.com/location-matcher/internal/hierarchy"
)

// Orchestrator runs the per-listing decision procedure: coordinates first,
// then municipality text search, then department search with disambiguation,
// then a global neighborhood search as a last resort.
type Orchestrator struct {
	logger        *zap.Logger
	index         *hierarchy.Index
	coords        *CoordinateMatcher
	text          *TextPatternMatcher
	disambiguator *DepartmentDisambiguator
	discovery     *discovery.Discovery
}

func NewOrchestrator(logger *zap.Logger, index *hierarchy.Index, coords *CoordinateMatcher,
	text *TextPatternMatcher, disambiguator *DepartmentDisambiguator, disc *discovery.Discovery) *Orchestrator {
	return &Orchestrator{
		logger:        logger,
		index:         index,
		coords:        coords,
		text:          text,
		disambiguator: disambiguator,
		discovery:     disc,
	}
}

// Match resolves one listing to hierarchy ids. It never fails: listings with
// no usable signal get the all-null unmatched result.
func (o *Orchestrator) Match(ctx context.Context, listing *models.ListingInput) *models.MatchResult {
	if listing.HasCoordinates() {
		if r := o.matchByCoordinates(ctx, listing); r != nil {
			return r
		}
	}

	if hit := o.text.FindMatch(listing, o.index.Level(models.LevelMunicipality)); hit != nil {
		return o.resolveMunicipality(ctx, listing, hit.Node, hit)
	}

	if hit := o.text.FindMatch(listing, o.index.Level(models.LevelDepartment)); hit != nil {
		return o.resolveDepartment(ctx, listing, hit)
	}

	if hit := o.text.FindMatch(listing, o.index.Level(models.LevelNeighborhood)); hit != nil {
		r := models.NewUnmatchedResult(listing.ExternalID)
		r.Ancestry = o.index.AncestryOf(hit.Node)
		r.SetMatch(models.LevelNeighborhood, hit.AdjustedScore, hit.Source, hit.MatchedText)
		return r
	}

	o.logger.Debug("listing unmatched", zap.Int64("externalId", listing.ExternalID))
	return models.NewUnmatchedResult(listing.ExternalID)
}

// matchByCoordinates handles tier-1 and tier-2 geometric hits. A tier-2
// municipality hit tries neighborhood discovery before settling for level 3.
func (o *Orchestrator) matchByCoordinates(ctx context.Context, listing *models.ListingInput) *models.MatchResult {
	hit := o.coords.Match(*listing.Latitude, *listing.Longitude)
	if hit == nil {
		return nil
	}

	r := models.NewUnmatchedResult(listing.ExternalID)
	r.Ancestry = o.index.AncestryOf(hit.Node)

	if hit.Node.Level == models.LevelNeighborhood {
		r.SetMatch(models.LevelNeighborhood, hit.Score, models.SourceCoordinates, hit.Evidence())
		return r
	}

	if node := o.discover(ctx, listing, hit.Node.ID); node != nil {
		r.Ancestry = o.index.AncestryOf(node)
		r.SetMatch(models.LevelNeighborhood, hit.Score, models.SourceCoordAutoDiscover, node.DisplayName)
		return r
	}

	r.SetMatch(models.LevelMunicipality, hit.Score, models.SourceCoordinates, hit.Evidence())
	return r
}

// resolveMunicipality settles a confirmed municipality: prefer a neighborhood
// text hit under it, then discovery when coordinates exist, then the
// municipality itself.
func (o *Orchestrator) resolveMunicipality(ctx context.Context, listing *models.ListingInput,
	muni *models.HierarchyNode, hit *TextMatch) *models.MatchResult {

	r := models.NewUnmatchedResult(listing.ExternalID)

	children := o.index.ChildrenOf(muni.ID, models.LevelNeighborhood)
	if l2 := o.text.FindMatch(listing, children); l2 != nil {
		r.Ancestry = o.index.AncestryOf(l2.Node)
		r.SetMatch(models.LevelNeighborhood, l2.AdjustedScore, l2.Source, l2.MatchedText)
		return r
	}

	if listing.HasCoordinates() {
		if node := o.discover(ctx, listing, muni.ID); node != nil {
			r.Ancestry = o.index.AncestryOf(node)
			r.SetMatch(models.LevelNeighborhood, hit.AdjustedScore, models.SourceTextAutoDiscover, node.DisplayName)
			return r
		}
	}

	r.Ancestry = o.index.AncestryOf(muni)
	r.SetMatch(models.LevelMunicipality, hit.AdjustedScore, hit.Source, hit.MatchedText)
	return r
}

// resolveDepartment handles a department-level text hit: redirect to a more
// specific municipality when the disambiguator finds one, otherwise keep the
// department and look for the most specific descendant that also matches.
func (o *Orchestrator) resolveDepartment(ctx context.Context, listing *models.ListingInput, hit *TextMatch) *models.MatchResult {
	dept := hit.Node

	if muni := o.disambiguator.Redirect(dept, listing); muni != nil {
		muniHit := o.text.FindMatch(listing, []*models.HierarchyNode{muni})
		if muniHit == nil {
			muniHit = hit
		}
		return o.resolveMunicipality(ctx, listing, muni, muniHit)
	}

	r := models.NewUnmatchedResult(listing.ExternalID)
	r.Ancestry = o.index.AncestryOf(dept)
	r.SetMatch(models.LevelDepartment, hit.AdjustedScore, hit.Source, hit.MatchedText)

	for _, level := range []int{models.LevelNeighborhood, models.LevelMunicipality, models.LevelDistrict} {
		candidates := o.descendantsOf(dept.ID, level)
		sub := o.text.FindMatch(listing, candidates)
		if sub == nil {
			continue
		}
		r.Ancestry = o.index.AncestryOf(sub.Node)
		r.SetMatch(level, sub.AdjustedScore, sub.Source, sub.MatchedText)
		break
	}
	return r
}

func (o *Orchestrator) descendantsOf(deptID, level int) []*models.HierarchyNode {
	var out []*models.HierarchyNode
	for _, n := range o.index.Level(level) {
		a := o.index.AncestryOf(n)
		if a.Level5ID != nil && *a.Level5ID == deptID {
			out = append(out, n)
		}
	}
	return out
}

// discover runs extraction and registration; a nil return means no usable
// candidate (staged, invalid, or registration failed).
func (o *Orchestrator) discover(ctx context.Context, listing *models.ListingInput, municipalityID int) *models.HierarchyNode {
	if o.discovery == nil {
		return nil
	}
	c := o.discovery.Extract(listing)
	if c == nil {
		return nil
	}
	node, err := o.discovery.Register(ctx, listing, c, municipalityID)
	if err != nil {
		o.logger.Warn("neighborhood registration failed",
			zap.Int64("externalId", listing.ExternalID),
			zap.String("candidate", c.DisplayName),
			zap.Error(err))
		return nil
	}
	return node
}

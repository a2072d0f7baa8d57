package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/location-matcher/app/models"
)

func TestDisambiguatorRedirect(t *testing.T) {
	idx := fixtureIndex(t, nil)
	dis := NewDepartmentDisambiguator(zap.NewNop(), idx, newTextMatcher())
	dept := idx.ByID(506) // Cuscatlán

	t.Run("redirects to containing municipality", func(t *testing.T) {
		listing := &models.ListingInput{Title: "Casa en venta, Antiguo Cuscatlán"}
		muni := dis.Redirect(dept, listing)
		require.NotNil(t, muni)
		assert.Equal(t, 306, muni.ID)
	})

	t.Run("keeps department when only its bare name appears", func(t *testing.T) {
		listing := &models.ListingInput{Title: "Terreno en Cuscatlán"}
		assert.Nil(t, dis.Redirect(dept, listing))
	})

	t.Run("identical names never redirect", func(t *testing.T) {
		// "San Salvador" is both a department and a municipality; the
		// containment must be proper.
		listing := &models.ListingInput{Title: "Casa en San Salvador"}
		assert.Nil(t, dis.Redirect(idx.ByID(505), listing))
	})
}

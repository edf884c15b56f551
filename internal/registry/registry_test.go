package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docport-io/docport/internal/apperrors"
	"github.com/docport-io/docport/internal/models"
)

func TestResolveKnownCategories(t *testing.T) {
	for _, name := range []string{
		models.CategoryQuote,
		models.CategoryReceipt,
		models.CategoryDeliveryNote,
		models.CategoryAccountStatement,
		models.CategoryWorkOrder,
		models.CategoryReminder,
	} {
		d, err := Resolve(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, d.Name)
		assert.NotEmpty(t, d.Collection)
		assert.Equal(t, models.FieldClientID, d.OwnerField)
		assert.Equal(t, models.FieldAssignedTo, d.AssignField)
	}
}

func TestResolveUnknownFailsClosed(t *testing.T) {
	for _, name := range []string{"invoice", "", "quotes", "QUOTE"} {
		_, err := Resolve(name)
		require.Error(t, err, name)
		assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
	}
}

func TestTechnicianScopeIsCategoryWide(t *testing.T) {
	// The as-built configuration grants technicians visibility across the
	// whole category, not only self-assigned documents.
	for _, name := range Categories() {
		d, err := Resolve(name)
		require.NoError(t, err)
		assert.False(t, d.AssignedOnly, name)
	}
}

func TestTechnicianMayWrite(t *testing.T) {
	d, err := Resolve(models.CategoryWorkOrder)
	require.NoError(t, err)

	assert.True(t, d.TechnicianMayWrite(models.FieldStatus))
	assert.True(t, d.TechnicianMayWrite("work_performed"))
	assert.True(t, d.TechnicianMayWrite(models.FieldClientID))
	assert.False(t, d.TechnicianMayWrite("total_amount"))

	quote, err := Resolve(models.CategoryQuote)
	require.NoError(t, err)
	assert.False(t, quote.TechnicianMayWrite(models.FieldClientID))

	stmt, err := Resolve(models.CategoryAccountStatement)
	require.NoError(t, err)
	assert.False(t, stmt.TechnicianMayWrite(models.FieldStatus))
}

func TestCategoriesCount(t *testing.T) {
	assert.Len(t, Categories(), 6)
}

package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ItemID   uuid.UUID `validate:"uuid_required"`
	Quantity int       `validate:"required,gte=1"`
}

func TestValidateStructReportsFailedFields(t *testing.T) {
	failures := ValidateStruct(payload{})
	require.Len(t, failures, 2)
	assert.Equal(t, "payload.ItemID", failures[0].FailedField)
	assert.Equal(t, "uuid_required", failures[0].Tag)
	assert.Equal(t, "payload.Quantity", failures[1].FailedField)
}

func TestValidateStructAcceptsValidPayload(t *testing.T) {
	assert.Nil(t, ValidateStruct(payload{ItemID: uuid.New(), Quantity: 3}))
}

func TestUUIDRequiredRejectsZeroValue(t *testing.T) {
	failures := ValidateStruct(payload{ItemID: uuid.Nil, Quantity: 1})
	require.Len(t, failures, 1)
	assert.Equal(t, "payload.ItemID", failures[0].FailedField)
}

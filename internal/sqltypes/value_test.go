package sqltypes

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplay(t *testing.T) {
	assert.Equal(t, "", Null().Display())
	assert.Equal(t, "true", FromBool(true).Display())
	assert.Equal(t, "42", FromI32(42).Display())
	assert.Equal(t, "0xDEADBEEF", FromBytes([]byte{0xDE, 0xAD, 0xBE, 0xEF}).Display())

	id := uuid.New()
	assert.Equal(t, id.String(), FromUUID(id).Display())

	utc := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, utc.Format(time.RFC3339), FromDateTimeUTC(utc).Display())
}

func TestMarshalJSONUntagged(t *testing.T) {
	b, err := json.Marshal(FromString("hello"))
	require.NoError(t, err)
	assert.Equal(t, `"hello"`, string(b))

	b, err = json.Marshal(FromI64(7))
	require.NoError(t, err)
	assert.Equal(t, "7", string(b))

	b, err = json.Marshal(Null())
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	b, err = json.Marshal(FromDecimal(decimal.NewFromFloat(1.5)))
	require.NoError(t, err)
	assert.Equal(t, `"1.5"`, string(b))
}

func TestSizeBytes(t *testing.T) {
	assert.Equal(t, 1, Null().SizeBytes())
	assert.Equal(t, 4, FromI32(1).SizeBytes())
	assert.Equal(t, 5, FromString("hello").SizeBytes())
	assert.Equal(t, 16, FromUUID(uuid.New()).SizeBytes())
}

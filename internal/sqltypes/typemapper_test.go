package sqltypes

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestExtractColumnNil(t *testing.T) {
	assert.True(t, ExtractColumn(nil, "INT").IsNull())
}

func TestExtractColumnString(t *testing.T) {
	v := ExtractColumn("hello", "NVARCHAR")
	assert.Equal(t, KindString, v.Kind)
	assert.Equal(t, "hello", v.Str)
}

func TestExtractColumnDecimalFromBytes(t *testing.T) {
	v := ExtractColumn([]byte("12.50"), "DECIMAL")
	assert.Equal(t, KindDecimal, v.Kind)
	assert.Equal(t, "12.5", v.Decimal.String())
}

func TestExtractColumnBinaryFromBytes(t *testing.T) {
	v := ExtractColumn([]byte{0x00, 0x01, 0xff}, "VARBINARY")
	assert.Equal(t, KindBytes, v.Kind)
}

func TestExtractColumnTextFromBytes(t *testing.T) {
	v := ExtractColumn([]byte("abc"), "VARCHAR")
	assert.Equal(t, KindString, v.Kind)
	assert.Equal(t, "abc", v.Str)
}

func TestExtractColumnNarrowsInt64ByDatabaseTypeName(t *testing.T) {
	assert.Equal(t, FromI8(42), ExtractColumn(int64(42), "TINYINT"))
	assert.Equal(t, FromI16(1234), ExtractColumn(int64(1234), "SMALLINT"))
	assert.Equal(t, FromI32(123456), ExtractColumn(int64(123456), "INT"))
	assert.Equal(t, FromI64(123456789012), ExtractColumn(int64(123456789012), "BIGINT"))
}

func TestExtractColumnNarrowsFloat64ByDatabaseTypeName(t *testing.T) {
	assert.Equal(t, FromF32(1.5), ExtractColumn(float64(1.5), "REAL"))
	assert.Equal(t, FromF64(2.5), ExtractColumn(float64(2.5), "FLOAT"))
}

func TestExtractColumnBool(t *testing.T) {
	v := ExtractColumn(true, "BIT")
	assert.Equal(t, FromBool(true), v)
}

func TestExtractColumnDateTime(t *testing.T) {
	ts := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, FromDate(ts), ExtractColumn(ts, "DATE"))
	assert.Equal(t, FromTime(ts), ExtractColumn(ts, "TIME"))
	assert.Equal(t, FromDateTimeUTC(ts), ExtractColumn(ts, "DATETIMEOFFSET"))
	assert.Equal(t, FromDateTimeUTC(ts), ExtractColumn(ts, "DATETIME2"))
}

func TestExtractColumnUUIDFromBytes(t *testing.T) {
	id := uuid.New()
	v := ExtractColumn([]byte(id.String()), "UNIQUEIDENTIFIER")
	assert.Equal(t, KindUUID, v.Kind)
	assert.Equal(t, id, v.UUID)
}

func TestSQLTypeNameFromValue(t *testing.T) {
	assert.Equal(t, "int", SQLTypeNameFromValue(FromI32(1)))
	assert.Equal(t, "nvarchar", SQLTypeNameFromValue(FromString("x")))
	assert.Equal(t, "unknown", SQLTypeNameFromValue(Null()))
}

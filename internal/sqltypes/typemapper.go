package sqltypes

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExtractColumn converts a value scanned by database/sql (into *interface{})
// into a SqlValue by switching on the scanned Go type (string, []byte, the
// integer and float widths, bool, time.Time, and the sql.Null* wrappers);
// any other type yields Null. This mirrors the teacher's
// convertDatabaseValue switch in server/server.go, generalized from "always
// stringify" to the full tagged-variant set the gateway needs, and keyed off
// both the scanned Go type and the driver's reported DatabaseTypeName so
// that, e.g., a DATE column renders as KindDate rather than KindDateTime.
func ExtractColumn(raw interface{}, dbTypeName string) SqlValue {
	if raw == nil {
		return Null()
	}

	typeName := strings.ToUpper(dbTypeName)

	switch val := raw.(type) {
	case string:
		return FromString(val)
	case []byte:
		return extractFromBytes(val, typeName)
	case int64:
		return fromInt64(val, typeName)
	case int32:
		return FromI32(val)
	case int16:
		return FromI16(val)
	case int8:
		return FromI8(val)
	case int:
		return fromInt64(int64(val), typeName)
	case float64:
		return fromFloat64(val, typeName)
	case float32:
		return FromF32(val)
	case bool:
		return FromBool(val)
	case time.Time:
		return fromTime(val, typeName)
	case sql.NullString:
		if !val.Valid {
			return Null()
		}
		return FromString(val.String)
	case sql.NullInt64:
		if !val.Valid {
			return Null()
		}
		return fromInt64(val.Int64, typeName)
	case sql.NullFloat64:
		if !val.Valid {
			return Null()
		}
		return fromFloat64(val.Float64, typeName)
	case sql.NullBool:
		if !val.Valid {
			return Null()
		}
		return FromBool(val.Bool)
	case sql.NullTime:
		if !val.Valid {
			return Null()
		}
		return fromTime(val.Time, typeName)
	default:
		return Null()
	}
}

// fromInt64 narrows the width go-mssqldb always collapses integer columns
// to (driver.Value only ever carries int64, never int8/int16/int32) back
// down using the driver's reported DatabaseTypeName, the same way fromTime
// narrows time.Time by type name.
func fromInt64(v int64, typeName string) SqlValue {
	switch typeName {
	case "TINYINT":
		return FromI8(int8(v))
	case "SMALLINT":
		return FromI16(int16(v))
	case "INT":
		return FromI32(int32(v))
	default:
		return FromI64(v)
	}
}

// fromFloat64 narrows REAL columns back to f32, the same way fromInt64
// narrows integer columns; go-mssqldb always hands back float64 for both
// REAL and FLOAT.
func fromFloat64(v float64, typeName string) SqlValue {
	if typeName == "REAL" {
		return FromF32(float32(v))
	}
	return FromF64(v)
}

func fromTime(t time.Time, typeName string) SqlValue {
	switch typeName {
	case "DATE":
		return FromDate(t)
	case "TIME":
		return FromTime(t)
	case "DATETIMEOFFSET":
		return FromDateTimeUTC(t)
	default:
		if t.Location() == time.UTC {
			return FromDateTimeUTC(t)
		}
		return FromDateTime(t)
	}
}

// extractFromBytes handles the case where the driver hands back raw bytes
// for a value that is semantically a string, decimal, uuid, or binary blob —
// the same ambiguity the teacher's convertDatabaseValue resolves via
// DatabaseTypeName category checks.
func extractFromBytes(b []byte, typeName string) SqlValue {
	switch {
	case isDecimalType(typeName):
		if d, err := decimal.NewFromString(string(b)); err == nil {
			return FromDecimal(d)
		}
	case typeName == "UNIQUEIDENTIFIER":
		if id, err := uuid.ParseBytes(b); err == nil {
			return FromUUID(id)
		}
		if id, err := uuid.Parse(string(b)); err == nil {
			return FromUUID(id)
		}
	case isTextType(typeName):
		return FromString(string(b))
	case isBinaryType(typeName):
		return FromBytes(b)
	}

	// Unknown type name: prefer string when no byte is below 0x20 other than
	// tab, newline, vertical tab, form feed, or carriage return; otherwise
	// fall back to raw bytes.
	if isPrintable(b) {
		return FromString(string(b))
	}
	return FromBytes(b)
}

func isDecimalType(t string) bool {
	switch t {
	case "DECIMAL", "NUMERIC", "MONEY", "SMALLMONEY":
		return true
	}
	return false
}

func isTextType(t string) bool {
	switch t {
	case "VARCHAR", "NVARCHAR", "CHAR", "NCHAR", "TEXT", "NTEXT", "XML":
		return true
	}
	return false
}

func isBinaryType(t string) bool {
	switch t {
	case "BINARY", "VARBINARY", "IMAGE", "TIMESTAMP", "ROWVERSION":
		return true
	}
	return false
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c < 0x09 || (c > 0x0d && c < 0x20) {
			return false
		}
	}
	return true
}

// SQLTypeNameFromValue infers a SQL Server type name from a SqlValue's kind,
// used when the driver does not report column type metadata.
func SQLTypeNameFromValue(v SqlValue) string {
	switch v.Kind {
	case KindNull:
		return "unknown"
	case KindBool:
		return "bit"
	case KindI8:
		return "tinyint"
	case KindI16:
		return "smallint"
	case KindI32:
		return "int"
	case KindI64:
		return "bigint"
	case KindF32:
		return "real"
	case KindF64:
		return "float"
	case KindString:
		return "nvarchar"
	case KindBytes:
		return "varbinary"
	case KindDecimal:
		return "decimal"
	case KindUUID:
		return "uniqueidentifier"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindDateTime:
		return "datetime2"
	case KindDateTimeUTC:
		return "datetimeoffset"
	default:
		return "unknown"
	}
}

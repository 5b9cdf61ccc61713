// Package sqltypes provides the tagged SqlValue variant used throughout the
// gateway to represent a single cell of a query result, independent of the
// driver's native Go type, plus the type-name mapper used to describe
// columns when the driver does not report one.
package sqltypes

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind discriminates the variant carried by a SqlValue.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindI8
	KindI16
	KindI32
	KindI64
	KindF32
	KindF64
	KindString
	KindBytes
	KindDecimal
	KindUUID
	KindDate
	KindTime
	KindDateTime
	KindDateTimeUTC
)

// SqlValue is a tagged union over the scalar types the gateway hands back to
// callers. Only the field matching Kind is meaningful. Instances are
// immutable once constructed.
type SqlValue struct {
	Kind     Kind
	Bool     bool
	I8       int8
	I16      int16
	I32      int32
	I64      int64
	F32      float32
	F64      float64
	Str      string
	Bytes    []byte
	Decimal  decimal.Decimal
	UUID     uuid.UUID
	DateTime time.Time
}

func Null() SqlValue                      { return SqlValue{Kind: KindNull} }
func FromBool(v bool) SqlValue            { return SqlValue{Kind: KindBool, Bool: v} }
func FromI8(v int8) SqlValue              { return SqlValue{Kind: KindI8, I8: v} }
func FromI16(v int16) SqlValue            { return SqlValue{Kind: KindI16, I16: v} }
func FromI32(v int32) SqlValue            { return SqlValue{Kind: KindI32, I32: v} }
func FromI64(v int64) SqlValue            { return SqlValue{Kind: KindI64, I64: v} }
func FromF32(v float32) SqlValue          { return SqlValue{Kind: KindF32, F32: v} }
func FromF64(v float64) SqlValue          { return SqlValue{Kind: KindF64, F64: v} }
func FromString(v string) SqlValue        { return SqlValue{Kind: KindString, Str: v} }
func FromBytes(v []byte) SqlValue         { return SqlValue{Kind: KindBytes, Bytes: v} }
func FromDecimal(v decimal.Decimal) SqlValue { return SqlValue{Kind: KindDecimal, Decimal: v} }
func FromUUID(v uuid.UUID) SqlValue       { return SqlValue{Kind: KindUUID, UUID: v} }

func FromDate(v time.Time) SqlValue { return SqlValue{Kind: KindDate, DateTime: v} }
func FromTime(v time.Time) SqlValue { return SqlValue{Kind: KindTime, DateTime: v} }
func FromDateTime(v time.Time) SqlValue {
	return SqlValue{Kind: KindDateTime, DateTime: v}
}
func FromDateTimeUTC(v time.Time) SqlValue {
	return SqlValue{Kind: KindDateTimeUTC, DateTime: v.UTC()}
}

// IsNull reports whether this value is the null variant.
func (v SqlValue) IsNull() bool { return v.Kind == KindNull }

// Display renders the idiomatic textual form of the value: byte slices as
// uppercase hex prefixed with "0x", datetimes as ISO-8601 (UTC variant as
// RFC-3339), everything else via its natural string conversion.
func (v SqlValue) Display() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindI8:
		return strconv.FormatInt(int64(v.I8), 10)
	case KindI16:
		return strconv.FormatInt(int64(v.I16), 10)
	case KindI32:
		return strconv.FormatInt(int64(v.I32), 10)
	case KindI64:
		return strconv.FormatInt(v.I64, 10)
	case KindF32:
		return strconv.FormatFloat(float64(v.F32), 'g', -1, 32)
	case KindF64:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	case KindString:
		return v.Str
	case KindBytes:
		return "0x" + strings.ToUpper(fmt.Sprintf("%x", v.Bytes))
	case KindDecimal:
		return v.Decimal.String()
	case KindUUID:
		return v.UUID.String()
	case KindDate:
		return v.DateTime.Format("2006-01-02")
	case KindTime:
		return v.DateTime.Format("15:04:05")
	case KindDateTime:
		return v.DateTime.Format("2006-01-02T15:04:05")
	case KindDateTimeUTC:
		return v.DateTime.UTC().Format(time.RFC3339)
	default:
		return ""
	}
}

// SizeBytes estimates the in-memory / wire weight of this value, used by the
// cache's size accounting. Widths mirror the semantic byte counts a compact
// binary encoding would use, not Go's actual struct layout.
func (v SqlValue) SizeBytes() int {
	switch v.Kind {
	case KindNull, KindBool, KindI8:
		return 1
	case KindI16:
		return 2
	case KindI32, KindF32:
		return 4
	case KindI64, KindF64:
		return 8
	case KindString:
		return len(v.Str)
	case KindBytes:
		return len(v.Bytes)
	case KindDecimal:
		return len(v.Decimal.String())
	case KindUUID:
		return 16
	case KindDateTime, KindDateTimeUTC:
		return 32
	case KindDate, KindTime:
		return 16
	default:
		return 0
	}
}

// MarshalJSON serializes the value "untagged" — only the wrapped content, no
// variant discriminator — because downstream tool handlers embed SqlValue
// directly in JSON responses and expect a bare scalar.
func (v SqlValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.Bool)
	case KindI8:
		return json.Marshal(v.I8)
	case KindI16:
		return json.Marshal(v.I16)
	case KindI32:
		return json.Marshal(v.I32)
	case KindI64:
		return json.Marshal(v.I64)
	case KindF32:
		return json.Marshal(v.F32)
	case KindF64:
		return json.Marshal(v.F64)
	case KindString:
		return json.Marshal(v.Str)
	case KindBytes:
		return json.Marshal(v.Display())
	case KindDecimal:
		return json.Marshal(v.Decimal.String())
	case KindUUID:
		return json.Marshal(v.UUID.String())
	case KindDate, KindTime, KindDateTime, KindDateTimeUTC:
		return json.Marshal(v.Display())
	default:
		return []byte("null"), nil
	}
}

package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Timestamp is the createdAt clock of a snapshot. Records written by older
// clients carry it as epoch milliseconds, an ISO string or a
// {seconds, nanoseconds} object; all of them decode into the same value.
// An unparsable input decodes to the zero Timestamp.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t, truncated to millisecond precision.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Millisecond)}
}

// TimestampFromMillis builds a Timestamp from epoch milliseconds.
func TimestampFromMillis(ms int64) Timestamp {
	return Timestamp{time.UnixMilli(ms).UTC()}
}

// Valid reports whether the timestamp carries a value.
func (t Timestamp) Valid() bool {
	return !t.IsZero()
}

// Millis returns epoch milliseconds, or 0 when the timestamp is not set.
func (t Timestamp) Millis() int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// MarshalJSON writes an RFC 3339 string, or null for the zero value.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts a number, a string or a seconds/nanoseconds object.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*t = Timestamp{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = parseTimestampString(s)
	case '{':
		var obj map[string]json.Number
		if err := json.Unmarshal(data, &obj); err != nil {
			// Objects of an unknown shape count as absent.
			return nil
		}
		secs, okS := firstNumber(obj, "seconds", "_seconds")
		nanos, _ := firstNumber(obj, "nanoseconds", "_nanoseconds")
		if okS {
			*t = Timestamp{time.Unix(int64(secs), int64(nanos)).UTC()}
		}
	default:
		ms, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			// Bare literals such as true count as absent.
			return nil
		}
		*t = TimestampFromMillis(int64(ms))
	}
	return nil
}

// MarshalBSONValue stores the timestamp as a BSON datetime.
func (t Timestamp) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if t.IsZero() {
		return bson.TypeNull, nil, nil
	}
	return bson.MarshalValue(t.UTC())
}

// UnmarshalBSONValue accepts datetime, numeric, string, BSON timestamp and
// embedded seconds/nanoseconds documents.
func (t *Timestamp) UnmarshalBSONValue(typ bsontype.Type, data []byte) error {
	*t = Timestamp{}
	rv := bson.RawValue{Type: typ, Value: data}
	switch typ {
	case bson.TypeDateTime:
		*t = Timestamp{rv.Time().UTC()}
	case bson.TypeInt64, bson.TypeInt32, bson.TypeDouble:
		if ms, ok := rawNumber(rv); ok {
			*t = TimestampFromMillis(int64(ms))
		}
	case bson.TypeString:
		*t = parseTimestampString(rv.StringValue())
	case bson.TypeTimestamp:
		secs, _ := rv.Timestamp()
		*t = Timestamp{time.Unix(int64(secs), 0).UTC()}
	case bson.TypeEmbeddedDocument:
		doc := rv.Document()
		secs, ok := rawNumber(lookupAny(doc, "seconds", "_seconds"))
		if !ok {
			return nil
		}
		nanos, _ := rawNumber(lookupAny(doc, "nanoseconds", "_nanoseconds"))
		*t = Timestamp{time.Unix(int64(secs), int64(nanos)).UTC()}
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestampString(s string) Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return Timestamp{ts.UTC()}
		}
	}
	if ms, err := strconv.ParseFloat(s, 64); err == nil {
		return TimestampFromMillis(int64(ms))
	}
	return Timestamp{}
}

func firstNumber(obj map[string]json.Number, keys ...string) (float64, bool) {
	for _, k := range keys {
		if n, ok := obj[k]; ok {
			if v, err := n.Float64(); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

func lookupAny(doc bson.Raw, keys ...string) bson.RawValue {
	for _, k := range keys {
		if v, err := doc.LookupErr(k); err == nil {
			return v
		}
	}
	return bson.RawValue{}
}

func rawNumber(rv bson.RawValue) (float64, bool) {
	switch rv.Type {
	case bson.TypeInt64:
		return float64(rv.Int64()), true
	case bson.TypeInt32:
		return float64(rv.Int32()), true
	case bson.TypeDouble:
		return rv.Double(), true
	}
	return 0, false
}

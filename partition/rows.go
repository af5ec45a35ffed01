package partition

import (
	"fmt"
	"strconv"
	"time"

	"github.com/arloliu/chorus/types"
)

// descriptor maps one system.parts row. Missing or malformed columns leave
// the zero value.
func descriptor(row types.Row) types.PartitionDescriptor {
	return types.PartitionDescriptor{
		Partition: toString(row["partition"]),
		Name:      toString(row["name"]),
		Database:  toString(row["database"]),
		Table:     toString(row["table"]),
		Engine:    toString(row["engine"]),
		MinDate:   toTime(row["min_date"]),
		MaxDate:   toTime(row["max_date"]),
		Rows:      toUint(row["rows"]),
		Bytes:     toUint(firstOf(row, "bytes_on_disk", "bytes")),
		Active:    toUint(row["active"]) != 0,
	}
}

func firstOf(row types.Row, keys ...string) any {
	for _, k := range keys {
		if v, ok := row[k]; ok {
			return v
		}
	}

	return nil
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

// toTime accepts driver time values and the textual Date/DateTime forms,
// interpreting the latter in local time.
func toTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case *time.Time:
		if t == nil {
			return time.Time{}
		}
		return *t
	case string:
		for _, layout := range []string{time.DateOnly, time.DateTime} {
			if ts, err := time.ParseInLocation(layout, t, time.Local); err == nil {
				return ts
			}
		}
	}

	return time.Time{}
}

func toUint(v any) uint64 {
	switch t := v.(type) {
	case uint64:
		return t
	case uint32:
		return uint64(t)
	case uint16:
		return uint64(t)
	case uint8:
		return uint64(t)
	case uint:
		return uint64(t)
	case int64:
		return uint64(max(t, 0))
	case int:
		return uint64(max(t, 0))
	case bool:
		if t {
			return 1
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n
		}
	}

	return 0
}

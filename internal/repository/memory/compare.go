package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// compare orders column values. Values of different types (a filter given as
// a string against a uuid or date column, say) are compared by their text form.
func compare(a, b interface{}) int {
	a, b = normalize(a), normalize(b)

	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return strings.Compare(text(a), text(b))
}

func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return ""
	case uuid.UUID:
		return x.String()
	case *uuid.UUID:
		if x == nil {
			return ""
		}
		return x.String()
	case model.VisitStatus:
		return string(x)
	case model.SlotTime:
		return x.String()
	case *time.Time:
		if x == nil {
			return time.Time{}
		}
		return *x
	case int:
		return int64(x)
	case int32:
		return int64(x)
	default:
		return v
	}
}

func text(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		if x.Equal(model.DateOf(x)) {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

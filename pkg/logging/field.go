package logging

import "time"

// Keys shared by every run event.
const (
	KeyTest     = "test"
	KeyIndex    = "index"
	KeyStatus   = "status"
	KeyError    = "error"
	KeyDuration = "duration_seconds"
)

// LogField creates a Field from a key-value pair.
func LogField(key string, value any) Field {
	return Field{Key: key, Value: value}
}

func StringField(key, value string) Field {
	return Field{Key: key, Value: value}
}

func IntField(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func BoolField(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// DurationField records value in seconds so log processors can sum
// it without parsing.
func DurationField(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.Seconds()}
}

// CaseFields identifies one test in a run by title and position.
func CaseFields(title string, index int) []Field {
	return []Field{
		{Key: KeyTest, Value: title},
		{Key: KeyIndex, Value: index},
	}
}

// ErrorField records err under KeyError. A nil err is logged as
// "<nil>".
func ErrorField(err error) Field {
	if err == nil {
		return Field{Key: KeyError, Value: "<nil>"}
	}
	return Field{Key: KeyError, Value: err.Error()}
}

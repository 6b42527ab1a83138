package log

import "time"

// Logger is what the regulator logs through. The four levels carry a
// message plus typed fields; any structured backend (zerolog, zap,
// logrus) adapts in a few lines.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is one key-value pair attached to a log message. Use the typed
// constructors below so adapters can map values without reflection.
type Field struct {
	Key   string
	Value interface{}
}

// String builds a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int builds an int field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 builds an int64 field.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Uint64 builds a uint64 field.
func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

// Float64 builds a float64 field.
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Bool builds a bool field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration builds a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Time builds a time field.
func Time(key string, value time.Time) Field {
	return Field{Key: key, Value: value}
}

// Err builds an error field under the key "error".
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// Any builds a field holding an arbitrary value.
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

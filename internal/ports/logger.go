package ports

import "github.com/biofluidics/pinchctl/pkg/log"

// Logger is the structured logging port used throughout internal packages.
// It aliases pkg/log so adapters and the application core share one type.
type Logger = log.Logger

// Field is a key-value pair for structured logging.
type Field = log.Field

// Field constructors re-exported for terse call sites.
var (
	String   = log.String
	Int      = log.Int
	Int64    = log.Int64
	Float64  = log.Float64
	Bool     = log.Bool
	Duration = log.Duration
	Time     = log.Time
	Err      = log.Err
	Any      = log.Any
)

package fs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/biofluidics/pinchctl/internal/domain"
	"github.com/biofluidics/pinchctl/internal/ports"
)

// tailChunk is how many bytes from the end of the scale log are examined
// to find the newest complete line.
const tailChunk = 256

// WeightFileSource implements ports.WeightSource over an append-only scale
// log. The scale process appends one "<unix-millis>,<grams>" line per
// reading; this source only ever inspects the tail of the file.
type WeightFileSource struct {
	path   string
	logger ports.Logger

	lastTS time.Time
}

// NewWeightFileSource creates a source reading from the given log path.
func NewWeightFileSource(path string, logger ports.Logger) *WeightFileSource {
	return &WeightFileSource{path: path, logger: logger}
}

// Read returns the newest sample in the log.
//
// A missing file, an empty log, or an unchanged newest timestamp is
// reported as domain.ErrNoSample (the scale simply has nothing new).
// Unreadable or malformed data is a hard sensor fault.
func (s *WeightFileSource) Read(ctx context.Context) (domain.WeightSample, error) {
	if err := ctx.Err(); err != nil {
		return domain.WeightSample{}, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.WeightSample{}, domain.ErrNoSample
		}
		return domain.WeightSample{}, fmt.Errorf("%w: open scale log: %v", domain.ErrSensorFault, err)
	}
	defer f.Close()

	line, ok, err := lastCompleteLine(f)
	if err != nil {
		return domain.WeightSample{}, fmt.Errorf("%w: read scale log: %v", domain.ErrSensorFault, err)
	}
	if !ok {
		return domain.WeightSample{}, domain.ErrNoSample
	}

	sample, err := parseLine(line)
	if err != nil {
		return domain.WeightSample{}, fmt.Errorf("%w: %v", domain.ErrSensorFault, err)
	}

	if !sample.Timestamp.After(s.lastTS) {
		return domain.WeightSample{}, domain.ErrNoSample
	}
	s.lastTS = sample.Timestamp
	return sample, nil
}

// lastCompleteLine returns the newest newline-terminated line in the file.
// A trailing unterminated line may still be mid-write and is ignored.
func lastCompleteLine(f *os.File) ([]byte, bool, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, false, err
	}

	size := info.Size()
	offset := size - tailChunk
	if offset < 0 {
		offset = 0
	}

	buf := make([]byte, size-offset)
	if _, err := f.ReadAt(buf, offset); err != nil && err != io.EOF {
		return nil, false, err
	}

	end := bytes.LastIndexByte(buf, '\n')
	if end < 0 {
		return nil, false, nil
	}
	terminated := bytes.TrimRight(buf[:end+1], "\r\n")
	if len(terminated) == 0 {
		return nil, false, nil
	}
	begin := bytes.LastIndexByte(terminated, '\n')
	return terminated[begin+1:], true, nil
}

// parseLine decodes one "<unix-millis>,<grams>" record.
func parseLine(line []byte) (domain.WeightSample, error) {
	fields := strings.SplitN(strings.TrimSpace(string(line)), ",", 2)
	if len(fields) != 2 {
		return domain.WeightSample{}, fmt.Errorf("malformed scale record %q", line)
	}

	millis, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return domain.WeightSample{}, fmt.Errorf("malformed timestamp %q: %v", fields[0], err)
	}
	mass, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return domain.WeightSample{}, fmt.Errorf("malformed mass %q: %v", fields[1], err)
	}
	if mass < 0 {
		return domain.WeightSample{}, fmt.Errorf("scale reported negative mass %v", mass)
	}

	return domain.WeightSample{
		Timestamp: time.UnixMilli(millis),
		Mass:      mass,
	}, nil
}

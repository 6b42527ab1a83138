package serial

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"

	"github.com/biofluidics/pinchctl/internal/domain"
	"github.com/biofluidics/pinchctl/pkg/log"
)

func TestValve_CommandWritesMoveAbsolute(t *testing.T) {
	tests := []struct {
		name      string
		positions int
		x         float64
		want      string
	}{
		{"closed", 400, 0, "/1A0R\r\n"},
		{"fully open", 400, 1, "/1A400R\r\n"},
		{"midpoint", 400, 0.5, "/1A200R\r\n"},
		{"rounds to nearest step", 400, 0.25625, "/1A103R\r\n"},
		{"coarse valve", 10, 0.72, "/1A7R\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			v := NewValve(&buf, tt.positions, log.NewNoopLogger())

			if err := v.Command(context.Background(), tt.x); err != nil {
				t.Fatalf("Command: %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("wrote %q, want %q", got, tt.want)
			}
			if v.LastPosition() != tt.x {
				t.Errorf("LastPosition() = %v, want %v", v.LastPosition(), tt.x)
			}
		})
	}
}

func TestValve_RejectsPositionOutOfRange(t *testing.T) {
	var buf bytes.Buffer
	v := NewValve(&buf, 400, log.NewNoopLogger())

	for _, x := range []float64{-0.01, 1.01, math.NaN(), math.Inf(1)} {
		err := v.Command(context.Background(), x)
		if !errors.Is(err, domain.ErrCommandRejected) {
			t.Errorf("Command(%v) error = %v, want ErrCommandRejected", x, err)
		}
	}
	if buf.Len() != 0 {
		t.Errorf("rejected commands must not reach the wire, wrote %q", buf.String())
	}
	if v.LastPosition() != 0 {
		t.Errorf("LastPosition() = %v, want 0 after rejections", v.LastPosition())
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("device unplugged")
}

func TestValve_WriteFailureIsRejection(t *testing.T) {
	v := NewValve(failingWriter{}, 400, log.NewNoopLogger())

	err := v.Command(context.Background(), 0.5)
	if !errors.Is(err, domain.ErrCommandRejected) {
		t.Errorf("Command error = %v, want ErrCommandRejected", err)
	}
	if v.LastPosition() != 0 {
		t.Errorf("LastPosition() = %v, want 0 after failed write", v.LastPosition())
	}
}

func TestValve_HonorsCanceledContext(t *testing.T) {
	var buf bytes.Buffer
	v := NewValve(&buf, 400, log.NewNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := v.Command(ctx, 0.5); !errors.Is(err, context.Canceled) {
		t.Errorf("Command error = %v, want context.Canceled", err)
	}
	if buf.Len() != 0 {
		t.Error("canceled command must not reach the wire")
	}
}

func TestNewValve_DefaultsPositions(t *testing.T) {
	var buf bytes.Buffer
	v := NewValve(&buf, 0, log.NewNoopLogger())

	if err := v.Command(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "/1A400R\r\n" {
		t.Errorf("wrote %q, want default 400-step travel", got)
	}
}

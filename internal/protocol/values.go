package protocol

import (
	"fmt"
	"strings"

	gserrors "github.com/codewiresh/gsapi/internal/errors"
)

// Documented value ranges.
const (
	MaxDrawingTime   = 60.0
	MaxCurveDuration = 60.0

	minTime = 0.0
	minUnit = 0.0
	maxUnit = 1.0
)

// DrawingPoint is one sample of a model drawing. T is seconds in [0,60];
// X, Y and P (pressure) are normalized to [0,1].
type DrawingPoint struct {
	T float64 `json:"t" yaml:"t"`
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	P float64 `json:"p" yaml:"p"`
}

// Validate checks the documented ranges.
func (p DrawingPoint) Validate() error {
	if err := checkRange("t", p.T, minTime, MaxDrawingTime); err != nil {
		return err
	}
	for _, f := range []struct {
		name string
		v    float64
	}{{"x", p.X}, {"y", p.Y}, {"p", p.P}} {
		if err := checkRange(f.name, f.v, minUnit, maxUnit); err != nil {
			return err
		}
	}
	return nil
}

// CurvePoint is one breakpoint of an automation curve, both axes in [0,1].
type CurvePoint struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Validate checks the documented ranges.
func (p CurvePoint) Validate() error {
	if err := checkRange("x", p.X, minUnit, maxUnit); err != nil {
		return err
	}
	return checkRange("y", p.Y, minUnit, maxUnit)
}

// CurveValue is a full automation curve.
type CurveValue struct {
	Points   []CurvePoint `json:"points" yaml:"points"`
	Duration float64      `json:"duration" yaml:"duration"`
	IsLoop   bool         `json:"loop" yaml:"loop"`
}

// Validate checks the duration and every point.
func (c CurveValue) Validate() error {
	if err := checkRange("duration", c.Duration, minTime, MaxCurveDuration); err != nil {
		return err
	}
	for i, p := range c.Points {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
	}
	return nil
}

func checkRange(name string, v, lo, hi float64) error {
	if v < lo || v > hi {
		return gserrors.NewInvalidArgumentError(
			fmt.Sprintf("%s=%s outside [%s,%s]", name, FormatFloat(v), FormatFloat(lo), FormatFloat(hi)), nil)
	}
	return nil
}

// FormatDrawing renders points as "(t,x,y,p),(t,x,y,p)".
func FormatDrawing(points []DrawingPoint) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = formatTuple(p.T, p.X, p.Y, p.P)
	}
	return strings.Join(parts, fieldSep)
}

// FormatCurvePoints renders points as "(x,y),(x,y)".
func FormatCurvePoints(points []CurvePoint) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = formatTuple(p.X, p.Y)
	}
	return strings.Join(parts, fieldSep)
}

func formatTuple(vs ...float64) string {
	fields := make([]string, len(vs))
	for i, v := range vs {
		fields[i] = FormatFloat(v)
	}
	return tupleOpen + strings.Join(fields, fieldSep) + tupleClose
}

package protocol

import (
	"fmt"
	"strconv"
	"strings"

	gserrors "github.com/codewiresh/gsapi/internal/errors"
)

const (
	// ListSeparator delimits name lists in responses.
	ListSeparator = ','

	tupleOpen  = "("
	tupleClose = ")"
	fieldSep   = ","
)

// Scalar returns the bare token of a scalar response: everything before the
// first NUL, with the terminator and surrounding whitespace removed.
func Scalar(resp string) string {
	if i := strings.IndexByte(resp, 0); i >= 0 {
		resp = resp[:i]
	}
	return strings.TrimSpace(resp)
}

// SplitList splits resp on sep. An empty response yields an empty slice, and a
// trailing separator does not yield a trailing empty element.
func SplitList(resp string, sep rune) []string {
	if resp == "" {
		return []string{}
	}
	parts := strings.Split(resp, string(sep))
	if n := len(parts); n > 0 && parts[n-1] == "" {
		parts = parts[:n-1]
	}
	return parts
}

// DecodeTupleList decodes "(a,b,...)(c,d,...)" into numeric tuples.
// Tuples whose field count is not arity are dropped; a non-numeric field in a
// tuple of the right arity fails the whole decode.
func DecodeTupleList(resp string, arity int) ([][]float64, error) {
	cleaned := strings.NewReplacer("\r", "", tupleOpen, "").Replace(resp)
	out := make([][]float64, 0)
	for _, chunk := range strings.Split(cleaned, tupleClose) {
		chunk = strings.TrimLeft(chunk, fieldSep+" \n\t")
		if chunk == "" {
			continue
		}
		fields := strings.Split(chunk, fieldSep)
		if len(fields) != arity {
			continue
		}
		tuple := make([]float64, arity)
		for i, f := range fields {
			v, err := ParseFloat(f)
			if err != nil {
				return nil, err
			}
			tuple[i] = v
		}
		out = append(out, tuple)
	}
	return out, nil
}

// DecodeDrawing decodes a get_drawing response.
func DecodeDrawing(resp string) ([]DrawingPoint, error) {
	tuples, err := DecodeTupleList(resp, 4)
	if err != nil {
		return nil, err
	}
	points := make([]DrawingPoint, 0, len(tuples))
	for _, t := range tuples {
		points = append(points, DrawingPoint{T: t[0], X: t[1], Y: t[2], P: t[3]})
	}
	return points, nil
}

// DecodeCurvePoints decodes "(x,y)(x,y)" into curve points.
func DecodeCurvePoints(resp string) ([]CurvePoint, error) {
	tuples, err := DecodeTupleList(resp, 2)
	if err != nil {
		return nil, err
	}
	points := make([]CurvePoint, 0, len(tuples))
	for _, t := range tuples {
		points = append(points, CurvePoint{X: t[0], Y: t[1]})
	}
	return points, nil
}

// DecodeCurveRecord decodes a get_curvevalue response:
//
//	(x,y)(x,y)... label duration loop
//
// The block after the last ")" must hold exactly three whitespace-separated
// fields. The label is not kept.
func DecodeCurveRecord(resp string) (CurveValue, error) {
	resp = Scalar(resp)
	pointsText, tail := "", resp
	if i := strings.LastIndex(resp, tupleClose); i >= 0 {
		pointsText, tail = resp[:i+1], resp[i+1:]
	}

	params := strings.Fields(tail)
	if len(params) != 3 {
		return CurveValue{}, gserrors.NewMalformedResponseError(
			fmt.Sprintf("curve record wants 3 trailing fields, got %d", len(params)), nil)
	}
	params = params[1:]

	points, err := DecodeCurvePoints(pointsText)
	if err != nil {
		return CurveValue{}, err
	}
	duration, err := ParseFloat(params[0])
	if err != nil {
		return CurveValue{}, err
	}
	loop, err := ParseFlag(params[1])
	if err != nil {
		return CurveValue{}, err
	}
	return CurveValue{Points: points, Duration: duration, IsLoop: loop}, nil
}

// ParseFloat parses a locale-independent decimal number.
func ParseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, gserrors.NewMalformedResponseError(fmt.Sprintf("expected number, got %q", s), err)
	}
	return v, nil
}

// ParseInt parses a base-10 integer.
func ParseInt(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, gserrors.NewMalformedResponseError(fmt.Sprintf("expected integer, got %q", s), err)
	}
	return v, nil
}

// ParseFlag parses an integer flag; only 1 is true.
func ParseFlag(s string) (bool, error) {
	v, err := ParseInt(s)
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

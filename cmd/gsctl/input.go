package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/codewiresh/gsapi/internal/client"
	"github.com/codewiresh/gsapi/internal/protocol"
)

// Structured command inputs are YAML files. JSON is valid YAML, so either
// works.

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// loadDrawing reads a list of {t, x, y, p} points and checks their ranges.
func loadDrawing(path string) ([]protocol.DrawingPoint, error) {
	var points []protocol.DrawingPoint
	if err := decodeFile(path, &points); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%s: drawing has no points", path)
	}
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%s: point %d: %w", path, i, err)
		}
	}
	return points, nil
}

// loadCurve reads {points: [{x, y}], duration, loop} and checks its ranges.
func loadCurve(path string) (protocol.CurveValue, error) {
	var cv protocol.CurveValue
	if err := decodeFile(path, &cv); err != nil {
		return protocol.CurveValue{}, err
	}
	if err := cv.Validate(); err != nil {
		return protocol.CurveValue{}, fmt.Errorf("%s: %w", path, err)
	}
	return cv, nil
}

// paramSpec is the file shape of one dialog parameter. Which fields apply
// depends on Type.
type paramSpec struct {
	Type     string   `yaml:"type"`
	Name     string   `yaml:"name"`
	Text     string   `yaml:"text"`
	Subtype  string   `yaml:"subtype"`
	Unit     string   `yaml:"unit"`
	Min      float64  `yaml:"min"`
	Max      float64  `yaml:"max"`
	Default  any      `yaml:"default"`
	Decimals int      `yaml:"decimals"`
	Choices  []string `yaml:"choices"`
	Align    string   `yaml:"align"`
}

// loadParams reads a list of parameter specs into dialog parameters.
func loadParams(path string) ([]client.Parameter, error) {
	var specs []paramSpec
	if err := decodeFile(path, &specs); err != nil {
		return nil, err
	}
	params := make([]client.Parameter, 0, len(specs))
	for i, s := range specs {
		p, err := s.parameter()
		if err != nil {
			return nil, fmt.Errorf("%s: parameter %d: %w", path, i, err)
		}
		params = append(params, p)
	}
	return params, nil
}

func (s paramSpec) parameter() (client.Parameter, error) {
	switch s.Type {
	case "number":
		sub, err := client.ParseNumberType(s.Subtype)
		if err != nil {
			return nil, err
		}
		def, err := floatDefault(s.Default)
		if err != nil {
			return nil, err
		}
		return client.Number{Name: s.Name, Type: sub, Unit: s.Unit, Min: s.Min, Max: s.Max, Default: def, Decimals: s.Decimals}, nil
	case "bool":
		def, _ := s.Default.(bool)
		return client.Bool{Name: s.Name, Default: def}, nil
	case "string":
		sub, err := client.ParseStringType(s.Subtype)
		if err != nil {
			return nil, err
		}
		def := ""
		if s.Default != nil {
			def = fmt.Sprint(s.Default)
		}
		return client.String{Name: s.Name, Type: sub, Default: def}, nil
	case "enum":
		sub, err := client.ParseEnumType(s.Subtype)
		if err != nil {
			return nil, err
		}
		def, err := intDefault(s.Default)
		if err != nil {
			return nil, err
		}
		return client.Enum{Name: s.Name, Type: sub, Choices: s.Choices, DefaultChoice: def}, nil
	case "label":
		sub, err := client.ParseLabelType(s.Subtype)
		if err != nil {
			return nil, err
		}
		align, err := client.ParseAlignment(s.Align)
		if err != nil {
			return nil, err
		}
		return client.Label{Text: s.Text, Type: sub, Align: align}, nil
	default:
		return nil, fmt.Errorf("unknown parameter type %q", s.Type)
	}
}

func floatDefault(v any) (float64, error) {
	switch v := v.(type) {
	case nil:
		return 0, nil
	case int:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		return strconv.ParseFloat(v, 64)
	}
	return 0, fmt.Errorf("default %v is not a number", v)
}

func intDefault(v any) (int, error) {
	switch v := v.(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case string:
		return strconv.Atoi(v)
	}
	return 0, fmt.Errorf("default %v is not a choice index", v)
}

package client

import (
	"fmt"
	"strings"

	gserrors "github.com/codewiresh/gsapi/internal/errors"
	"github.com/codewiresh/gsapi/internal/protocol"
)

// Parameter is one field of a window_parameters dialog. The set of
// implementations is closed: Number, Bool, String, Enum and Label.
type Parameter interface {
	dialogParameter()
}

// NumberType is INTEGER or FLOAT.
type NumberType int

const (
	NumberInteger NumberType = iota
	NumberFloat
)

// StringType selects plain text entry or a file/folder picker.
type StringType int

const (
	StringNormal StringType = iota
	StringFileLoad
	StringFileSave
	StringFolder
)

// EnumType is LIST or COMBO.
type EnumType int

const (
	EnumList EnumType = iota
	EnumCombo
)

// LabelType is TEXT or HEADER.
type LabelType int

const (
	LabelText LabelType = iota
	LabelHeader
)

// Alignment is the horizontal placement of a label.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

var (
	numberTypes = []string{"INTEGER", "FLOAT"}
	stringTypes = []string{"NORMAL", "FILELOAD", "FILESAVE", "FOLDER"}
	enumTypes   = []string{"LIST", "COMBO"}
	labelTypes  = []string{"TEXT", "HEADER"}
	alignments  = []string{"LEFT", "RIGHT", "CENTER"}
)

// Number is a numeric field.
type Number struct {
	Name     string
	Type     NumberType
	Unit     string
	Min      float64
	Max      float64
	Default  float64
	Decimals int
}

// Bool is a checkbox.
type Bool struct {
	Name    string
	Default bool
}

// String is a text or path field.
type String struct {
	Name    string
	Type    StringType
	Default string
}

// Enum is a choice among fixed strings. DefaultChoice indexes Choices.
type Enum struct {
	Name          string
	Type          EnumType
	Choices       []string
	DefaultChoice int
}

// Label is static text.
type Label struct {
	Text  string
	Type  LabelType
	Align Alignment
}

func (Number) dialogParameter() {}
func (Bool) dialogParameter() {}
func (String) dialogParameter() {}
func (Enum) dialogParameter() {}
func (Label) dialogParameter() {}

// EncodeParameter renders p as a brace-delimited dialog token, e.g.
// {BOOL,"Loud",TRUE}.
func EncodeParameter(p Parameter) (string, error) {
	switch p := p.(type) {
	case Number:
		sub, err := token("number type", numberTypes, int(p.Type))
		if err != nil {
			return "", err
		}
		return braces("NUMBER", quoted(p.Name), sub, quoted(p.Unit),
			protocol.FormatFloat(p.Min), protocol.FormatFloat(p.Max),
			protocol.FormatFloat(p.Default), protocol.FormatInt(p.Decimals)), nil
	case Bool:
		def := "FALSE"
		if p.Default {
			def = "TRUE"
		}
		return braces("BOOL", quoted(p.Name), def), nil
	case String:
		sub, err := token("string type", stringTypes, int(p.Type))
		if err != nil {
			return "", err
		}
		return braces("STRING", quoted(p.Name), sub, quoted(p.Default)), nil
	case Enum:
		sub, err := token("enum type", enumTypes, int(p.Type))
		if err != nil {
			return "", err
		}
		if len(p.Choices) == 0 {
			return "", gserrors.NewInvalidArgumentError(fmt.Sprintf("enum %q has no choices", p.Name), nil)
		}
		if p.DefaultChoice < 0 || p.DefaultChoice >= len(p.Choices) {
			return "", gserrors.NewInvalidArgumentError(
				fmt.Sprintf("enum %q default %d outside %d choices", p.Name, p.DefaultChoice, len(p.Choices)), nil)
		}
		return braces("ENUM", quoted(p.Name), sub,
			quoted(strings.Join(p.Choices, ", ")), p.Choices[p.DefaultChoice]), nil
	case Label:
		sub, err := token("label type", labelTypes, int(p.Type))
		if err != nil {
			return "", err
		}
		align, err := token("alignment", alignments, int(p.Align))
		if err != nil {
			return "", err
		}
		return braces("LABEL", quoted(p.Text), sub, align), nil
	case nil:
		return "", gserrors.NewInvalidArgumentError("nil dialog parameter", nil)
	default:
		return "", gserrors.NewInvalidArgumentError(fmt.Sprintf("unsupported dialog parameter %T", p), nil)
	}
}

func token(what string, table []string, v int) (string, error) {
	if v < 0 || v >= len(table) {
		return "", gserrors.NewInvalidArgumentError(fmt.Sprintf("%s %d out of range", what, v), nil)
	}
	return table[v], nil
}

func quoted(s string) string {
	return protocol.Quote(s)
}

func braces(fields ...string) string {
	return "{" + strings.Join(fields, ",") + "}"
}

// ParseNumberType maps INTEGER or FLOAT (any case) to a NumberType.
func ParseNumberType(s string) (NumberType, error) {
	v, err := lookup("number type", numberTypes, s)
	return NumberType(v), err
}

// ParseStringType maps NORMAL, FILELOAD, FILESAVE or FOLDER to a StringType.
func ParseStringType(s string) (StringType, error) {
	v, err := lookup("string type", stringTypes, s)
	return StringType(v), err
}

// ParseEnumType maps LIST or COMBO to an EnumType.
func ParseEnumType(s string) (EnumType, error) {
	v, err := lookup("enum type", enumTypes, s)
	return EnumType(v), err
}

// ParseLabelType maps TEXT or HEADER to a LabelType.
func ParseLabelType(s string) (LabelType, error) {
	v, err := lookup("label type", labelTypes, s)
	return LabelType(v), err
}

// ParseAlignment maps LEFT, RIGHT or CENTER to an Alignment.
func ParseAlignment(s string) (Alignment, error) {
	v, err := lookup("alignment", alignments, s)
	return Alignment(v), err
}

// lookup is the inverse of token. An empty string selects the first entry.
func lookup(what string, table []string, s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	for i, tok := range table {
		if strings.EqualFold(tok, s) {
			return i, nil
		}
	}
	return 0, gserrors.NewInvalidArgumentError(fmt.Sprintf("unknown %s %q", what, s), nil)
}

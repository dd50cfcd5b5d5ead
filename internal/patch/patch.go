// Package patch reads the header metadata of .gspatch files.
package patch

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// Extension is the file extension of patch files.
const Extension = ".gspatch"

// Metadata is the identifying header of a patch file.
type Metadata struct {
	FilePath       string `json:"file_path" yaml:"file_path"`
	ToolVersion    string `json:"tool_version" yaml:"tool_version"`
	PatchName      string `json:"patch_name" yaml:"patch_name"`
	PatchVersion   string `json:"patch_version" yaml:"patch_version"`
	Author         string `json:"author" yaml:"author"`
	UCSCategory    string `json:"ucs_category,omitempty" yaml:"ucs_category,omitempty"`
	UCSSubCategory string `json:"ucs_sub_category,omitempty" yaml:"ucs_sub_category,omitempty"`
}

// ErrNotPatch is returned when the document root is not GameSynthPatch.
var ErrNotPatch = errors.New("not a GameSynthPatch document")

type xmlDocument struct {
	XMLName     xml.Name  `xml:"GameSynthPatch"`
	ToolVersion *string   `xml:"ToolVersion,attr"`
	Patch       *xmlPatch `xml:"Patch"`
}

type xmlPatch struct {
	Name    *string   `xml:"PatchName,attr"`
	Version *string   `xml:"PatchVersion,attr"`
	Author  *xmlValue `xml:"Author"`
	UCS     *xmlUCS   `xml:"UCS"`
}

type xmlValue struct {
	Value *string `xml:"value,attr"`
}

type xmlUCS struct {
	Category    string `xml:"category,attr"`
	SubCategory string `xml:"subCategory,attr"`
}

// Parse extracts Metadata from patch XML. The root element, the Patch and
// Author elements and their identifying attributes are required; UCS is
// optional.
func Parse(data []byte) (Metadata, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader

	var doc xmlDocument
	if err := dec.Decode(&doc); err != nil {
		var unexpected xml.UnmarshalError
		if errors.As(err, &unexpected) && strings.Contains(string(unexpected), "GameSynthPatch") {
			return Metadata{}, fmt.Errorf("%w: %v", ErrNotPatch, err)
		}
		return Metadata{}, fmt.Errorf("parsing patch xml: %w", err)
	}

	if doc.ToolVersion == nil {
		return Metadata{}, missing("GameSynthPatch", "ToolVersion")
	}
	if doc.Patch == nil {
		return Metadata{}, fmt.Errorf("patch xml: missing <Patch> element")
	}
	p := doc.Patch
	if p.Name == nil {
		return Metadata{}, missing("Patch", "PatchName")
	}
	if p.Version == nil {
		return Metadata{}, missing("Patch", "PatchVersion")
	}
	if p.Author == nil {
		return Metadata{}, fmt.Errorf("patch xml: missing <Author> element")
	}
	if p.Author.Value == nil {
		return Metadata{}, missing("Author", "value")
	}

	md := Metadata{
		ToolVersion:  *doc.ToolVersion,
		PatchName:    *p.Name,
		PatchVersion: *p.Version,
		Author:       *p.Author.Value,
	}
	if p.UCS != nil {
		md.UCSCategory = p.UCS.Category
		md.UCSSubCategory = p.UCS.SubCategory
	}
	return md, nil
}

// ParseFile reads and parses the patch at path.
func ParseFile(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("reading patch: %w", err)
	}
	md, err := Parse(data)
	if err != nil {
		return Metadata{}, fmt.Errorf("%s: %w", path, err)
	}
	md.FilePath = path
	return md, nil
}

// IsPatchFile reports whether path has the patch extension.
func IsPatchFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Extension)
}

func missing(element, attr string) error {
	return fmt.Errorf("patch xml: <%s> has no %s attribute", element, attr)
}

// charsetReader decodes non-UTF-8 documents named in the XML declaration.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported patch encoding %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

package exchange

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/catforge/cat-core/internal/core/domain"
)

type tmxDocument struct {
	XMLName xml.Name  `xml:"tmx"`
	Version string    `xml:"version,attr"`
	Header  tmxHeader `xml:"header"`
	Units   []tmxUnit `xml:"body>tu"`
}

type tmxHeader struct {
	CreationTool string `xml:"creationtool,attr"`
	SrcLang      string `xml:"srclang,attr"`
	AdminLang    string `xml:"adminlang,attr"`
	DataType     string `xml:"datatype,attr"`
	SegType      string `xml:"segtype,attr,omitempty"`
}

type tmxUnit struct {
	Variants []tmxVariant `xml:"tuv"`
}

type tmxVariant struct {
	Lang string `xml:"http://www.w3.org/XML/1998/namespace lang,attr"`
	Seg  string `xml:"seg"`
}

// TMX is a decoded translation memory exchange document.
type TMX struct {
	SourceLang string
	TargetLang string
	Entries    []domain.TMEntry
}

// EncodeTMX writes entries as a TMX 1.4 document. Context fields are not
// part of the format and are dropped.
func EncodeTMX(w io.Writer, entries []domain.TMEntry, sourceLang, targetLang string) error {
	doc := tmxDocument{
		Version: "1.4",
		Header: tmxHeader{
			CreationTool: "cat-core",
			SrcLang:      sourceLang,
			AdminLang:    "en",
			DataType:     "plaintext",
			SegType:      "sentence",
		},
		Units: make([]tmxUnit, 0, len(entries)),
	}
	for _, e := range entries {
		doc.Units = append(doc.Units, tmxUnit{Variants: []tmxVariant{
			{Lang: sourceLang, Seg: e.Source},
			{Lang: targetLang, Seg: e.Target},
		}})
	}
	return encodeXML(w, doc)
}

// DecodeTMX reads a TMX document. Units need at least two variants and a
// non-empty source and target; anything else is skipped. The source is
// the variant tagged with the header's srclang, else the first one.
func DecodeTMX(r io.Reader) (*TMX, error) {
	var doc tmxDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: invalid TMX: %v", domain.ErrInvalidInput, err)
	}

	out := &TMX{SourceLang: doc.Header.SrcLang}
	for _, tu := range doc.Units {
		if len(tu.Variants) < 2 {
			continue
		}
		src, tgt := pickVariants(tu.Variants, doc.Header.SrcLang)
		if src.Seg == "" || tgt.Seg == "" {
			continue
		}
		if out.TargetLang == "" {
			out.TargetLang = tgt.Lang
		}
		out.Entries = append(out.Entries, domain.TMEntry{Source: src.Seg, Target: tgt.Seg})
	}
	return out, nil
}

func pickVariants(variants []tmxVariant, srcLang string) (tmxVariant, tmxVariant) {
	srcIdx := 0
	if srcLang != "" && !strings.EqualFold(srcLang, "*all*") {
		for i, v := range variants {
			if strings.EqualFold(v.Lang, srcLang) {
				srcIdx = i
				break
			}
		}
	}
	tgtIdx := 1
	if srcIdx != 0 {
		tgtIdx = 0
	}
	return variants[srcIdx], variants[tgtIdx]
}

func encodeXML(w io.Writer, v any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

package exchange

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/catforge/cat-core/internal/core/domain"
)

const xliffNamespace = "urn:oasis:names:tc:xliff:document:1.2"

// xliffDocument leaves XMLName untagged so documents without the 1.2
// namespace still decode.
type xliffDocument struct {
	XMLName xml.Name
	Version string      `xml:"version,attr"`
	Files   []xliffFile `xml:"file"`
}

type xliffFile struct {
	SourceLang string      `xml:"source-language,attr"`
	TargetLang string      `xml:"target-language,attr,omitempty"`
	DataType   string      `xml:"datatype,attr"`
	Original   string      `xml:"original,attr"`
	Units      []xliffUnit `xml:"body>trans-unit"`
}

type xliffUnit struct {
	ID       string       `xml:"id,attr"`
	Approved string       `xml:"approved,attr,omitempty"`
	Source   string       `xml:"source"`
	Target   *xliffTarget `xml:"target"`
}

type xliffTarget struct {
	State string `xml:"state,attr,omitempty"`
	Text  string `xml:",chardata"`
}

// XLIFF is a decoded localization interchange document.
type XLIFF struct {
	SourceLang string
	TargetLang string
	Original   string
	Segments   []domain.Segment
}

// EncodeXLIFF writes segments as an XLIFF 1.2 document with one file.
// Unit ids are 1-based; confirmed segments are approved with state final.
func EncodeXLIFF(w io.Writer, segments []domain.Segment, sourceLang, targetLang, original string) error {
	file := xliffFile{
		SourceLang: sourceLang,
		TargetLang: targetLang,
		DataType:   "plaintext",
		Original:   original,
		Units:      make([]xliffUnit, 0, len(segments)),
	}
	for _, seg := range segments {
		unit := xliffUnit{
			ID:     strconv.Itoa(seg.ID + 1),
			Source: seg.Source,
			Target: &xliffTarget{Text: seg.Target},
		}
		switch seg.Status {
		case domain.SegmentStatusConfirmed:
			unit.Approved = "yes"
			unit.Target.State = "final"
		case domain.SegmentStatusTranslated:
			unit.Target.State = "translated"
		default:
			unit.Target.State = "new"
		}
		file.Units = append(file.Units, unit)
	}
	return encodeXML(w, xliffDocument{
		XMLName: xml.Name{Space: xliffNamespace, Local: "xliff"},
		Version: "1.2",
		Files:   []xliffFile{file},
	})
}

// DecodeXLIFF reads trans-units from every file of an XLIFF document.
// A segment's id is the position of its unit in the document; units
// without source text are skipped. Match rates are left at zero.
func DecodeXLIFF(r io.Reader) (*XLIFF, error) {
	var doc xliffDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: invalid XLIFF: %v", domain.ErrInvalidInput, err)
	}
	if doc.XMLName.Local != "xliff" {
		return nil, fmt.Errorf("%w: root element is <%s>, want <xliff>", domain.ErrInvalidInput, doc.XMLName.Local)
	}

	out := &XLIFF{}
	idx := 0
	for _, file := range doc.Files {
		if out.SourceLang == "" {
			out.SourceLang = file.SourceLang
			out.TargetLang = file.TargetLang
			out.Original = file.Original
		}
		for _, unit := range file.Units {
			id := idx
			idx++
			if unit.Source == "" {
				continue
			}
			var target, state string
			if unit.Target != nil {
				target, state = unit.Target.Text, unit.Target.State
			}
			out.Segments = append(out.Segments, domain.Segment{
				ID:     id,
				Source: unit.Source,
				Target: target,
				Status: unitStatus(unit.Approved, state, target),
			})
		}
	}
	return out, nil
}

func unitStatus(approved, state, target string) domain.SegmentStatus {
	if approved == "yes" || state == "final" {
		return domain.SegmentStatusConfirmed
	}
	if target != "" && (state == "translated" || state == "") {
		return domain.SegmentStatusTranslated
	}
	return domain.SegmentStatusNew
}

package model

import "encoding/xml"

// Package is the metadata block of an EPUB content.opf.
type Package struct {
	XMLName xml.Name `xml:"metadata"`

	Titles      []DCText       `xml:"dc:title"`
	Identifiers []DCIdentifier `xml:"dc:identifier"`
	Languages   []DCText       `xml:"dc:language"`

	Creators     []DCCreator `xml:"dc:creator"`
	Dates        []DCDate    `xml:"dc:date"`
	Descriptions []DCText    `xml:"dc:description"`
	Publishers   []DCText    `xml:"dc:publisher"`
	Subjects     []DCText    `xml:"dc:subject"`

	Metas []PackageMeta `xml:"meta"`
}

func (p *Package) Marshal() (string, error) {
	return marshalXML(p)
}

type DCText struct {
	Value string `xml:",chardata"`
	Lang  string `xml:"xml:lang,attr,omitempty"`
}

type DCIdentifier struct {
	Value  string `xml:",chardata"`
	ID     string `xml:"id,attr,omitempty"`
	Scheme string `xml:"opf:scheme,attr,omitempty"`
}

type DCCreator struct {
	Value  string `xml:",chardata"`
	Role   string `xml:"opf:role,attr,omitempty"`
	FileAs string `xml:"opf:file-as,attr,omitempty"`
}

// DCDate holds a YYYY-MM-DD date; Event is "publication" or "modification".
type DCDate struct {
	Value string `xml:",chardata"`
	Event string `xml:"opf:event,attr,omitempty"`
}

type PackageMeta struct {
	Name     string `xml:"name,attr,omitempty"`
	Content  string `xml:"content,attr,omitempty"`
	Property string `xml:"property,attr,omitempty"`
	Value    string `xml:",chardata"`
}

type Manifest struct {
	XMLName xml.Name       `xml:"manifest"`
	Items   []ManifestItem `xml:"item"`
}

func (m *Manifest) Marshal() (string, error) {
	return marshalXML(m)
}

type ManifestItem struct {
	ID         string `xml:"id,attr"`
	Link       string `xml:"href,attr"`
	Media      string `xml:"media-type,attr,omitempty"`
	Properties string `xml:"properties,attr,omitempty"`
}

type Spine struct {
	XMLName xml.Name    `xml:"spine"`
	Toc     string      `xml:"toc,attr,omitempty"`
	Items   []SpineItem `xml:"itemref"`
}

func (s *Spine) Marshal() (string, error) {
	return marshalXML(s)
}

type SpineItem struct {
	IDref string `xml:"idref,attr"`
}

type TocHead struct {
	XMLName xml.Name      `xml:"head"`
	Meta    []TocHeadMeta `xml:"meta"`
}

type TocHeadMeta struct {
	Content string `xml:"content,attr"`
	Name    string `xml:"name,attr"`
}

func (h *TocHead) Marshal() (string, error) {
	return marshalXML(h)
}

type NavPoint struct {
	Id        string          `xml:"id,attr"`
	PlayOrder int             `xml:"playOrder,attr"`
	Label     string          `xml:"navLabel>text"`
	Content   NavPointContent `xml:"content"`
}

type NavPointContent struct {
	Src string `xml:"src,attr"`
}

type NavMap struct {
	XMLName xml.Name    `xml:"navMap"`
	Points  []*NavPoint `xml:"navPoint"`
}

func (n *NavMap) Marshal() (string, error) {
	return marshalXML(n)
}

func marshalXML(v any) (string, error) {
	xmlBytes, err := xml.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(xmlBytes), nil
}

package message

import "strings"

// RootPartID addresses the whole body of a message that is not multipart.
const RootPartID = "0"

// Part is a node in a message's body structure. Leaves carry content;
// multipart nodes only carry Children. Part IDs use IMAP dotted notation.
type Part struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Subtype     string            `json:"subtype"`
	Params      map[string]string `json:"params,omitempty"`
	Encoding    TransferEncoding  `json:"encoding"`
	Size        uint32            `json:"size,omitempty"`
	Disposition string            `json:"disposition,omitempty"`
	Filename    string            `json:"filename,omitempty"`
	Children    []*Part           `json:"children,omitempty"`
}

// BodyPart identifies a leaf to fetch and how to decode it.
type BodyPart struct {
	ID       string
	Encoding TransferEncoding
}

// MediaType returns the lower-case type/subtype.
func (p *Part) MediaType() string {
	return strings.ToLower(p.Type + "/" + p.Subtype)
}

func (p *Part) IsMultipart() bool {
	return strings.EqualFold(p.Type, "multipart")
}

// IsAttachment reports whether the part is marked as an attachment or
// carries a file name.
func (p *Part) IsAttachment() bool {
	return strings.EqualFold(p.Disposition, "attachment") || p.Filename != ""
}

// Leaves returns the content parts in depth-first order.
func (p *Part) Leaves() []*Part {
	if !p.IsMultipart() {
		return []*Part{p}
	}
	var leaves []*Part
	for _, c := range p.Children {
		leaves = append(leaves, c.Leaves()...)
	}
	return leaves
}

// Find returns the part with the given id, or nil.
func (p *Part) Find(id string) *Part {
	if p.ID == id {
		return p
	}
	for _, c := range p.Children {
		if found := c.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// BodyParts returns descriptors for the inline leaves whose media type is one
// of mediaTypes. With no media types every inline leaf is returned.
func (p *Part) BodyParts(mediaTypes ...string) []BodyPart {
	var out []BodyPart
	for _, leaf := range p.Leaves() {
		if leaf.IsAttachment() || !matchesMediaType(leaf, mediaTypes) {
			continue
		}
		out = append(out, BodyPart{ID: leaf.ID, Encoding: leaf.Encoding})
	}
	return out
}

func matchesMediaType(p *Part, mediaTypes []string) bool {
	if len(mediaTypes) == 0 {
		return true
	}
	mt := p.MediaType()
	for _, want := range mediaTypes {
		if strings.EqualFold(mt, want) {
			return true
		}
	}
	return false
}

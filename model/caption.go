package model

// CaptionCandidate is a positioned text run that may hold a caption.
// Candidates are created once per page from the text layer and never
// mutated; a candidate whose text parses to no caption signature is kept
// as raw text only and never drives numbering.
type CaptionCandidate struct {
	Text string
	BBox BoundingBox
	Page int
}

// ParsedCaption is a caption candidate whose text matched a caption
// signature: an element-type keyword followed by a number and an optional
// sub-label ("7(a)", "Fig. 3b"). One candidate can yield several parsed
// captions when it enumerates a range ("Figures 3 and 4").
type ParsedCaption struct {
	CaptionCandidate
	Type     ElementType
	Number   int
	Sublabel string // "" when the caption carries no sub-label
}

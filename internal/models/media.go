package models

import (
	"fmt"
	"time"
)

// MediaType is the kind of asset feedback is attached to.
type MediaType string

const (
	MediaTypeImage    MediaType = "image"
	MediaTypeDesign   MediaType = "design"
	MediaTypeVideo    MediaType = "video"
	MediaTypeAudio    MediaType = "audio"
	MediaTypeDocument MediaType = "document"
	MediaTypeCode     MediaType = "code"
)

// Valid reports whether t is a known media type.
func (t MediaType) Valid() bool {
	switch t {
	case MediaTypeImage, MediaTypeDesign, MediaTypeVideo, MediaTypeAudio, MediaTypeDocument, MediaTypeCode:
		return true
	}
	return false
}

// MediaFile is an asset under review.
type MediaFile struct {
	ID        string     `json:"id"`
	Name      string     `json:"name" validate:"required"`
	Type      MediaType  `json:"type" validate:"required"`
	URL       string     `json:"url"`
	Version   string     `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// AnchorShape identifies which anchor fields are meaningful.
type AnchorShape string

const (
	AnchorPoint AnchorShape = "point" // image/design coordinate
	AnchorTime  AnchorShape = "time"  // video/audio offset
	AnchorPage  AnchorShape = "page"  // document page + highlight
	AnchorLine  AnchorShape = "line"  // code line + character
)

// TextRange is an inclusive character range within a document page.
type TextRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Anchor locates a comment inside its media file. Exactly one shape applies.
type Anchor struct {
	Shape     AnchorShape `json:"shape"`
	X         float64     `json:"x,omitempty"`
	Y         float64     `json:"y,omitempty"`
	Zoom      float64     `json:"zoom,omitempty"`
	Timestamp float64     `json:"timestamp,omitempty"`
	Page      int         `json:"page,omitempty"`
	Highlight *TextRange  `json:"highlight,omitempty"`
	Line      int         `json:"line,omitempty"`
	Character int         `json:"character,omitempty"`
}

// ShapeFor returns the anchor shape required by a media type.
func ShapeFor(t MediaType) (AnchorShape, error) {
	switch t {
	case MediaTypeImage, MediaTypeDesign:
		return AnchorPoint, nil
	case MediaTypeVideo, MediaTypeAudio:
		return AnchorTime, nil
	case MediaTypeDocument:
		return AnchorPage, nil
	case MediaTypeCode:
		return AnchorLine, nil
	}
	return "", fmt.Errorf("unknown media type: %q", t)
}

// ValidateFor checks that the anchor's shape and fields suit the host media type.
func (a Anchor) ValidateFor(t MediaType) error {
	want, err := ShapeFor(t)
	if err != nil {
		return err
	}
	if a.Shape != want {
		return fmt.Errorf("anchor shape %q does not match %s media (want %q)", a.Shape, t, want)
	}
	switch a.Shape {
	case AnchorPoint:
		if a.X < 0 || a.Y < 0 {
			return fmt.Errorf("point anchor must have non-negative coordinates")
		}
	case AnchorTime:
		if a.Timestamp < 0 {
			return fmt.Errorf("time anchor must have a non-negative offset")
		}
	case AnchorPage:
		if a.Page < 1 {
			return fmt.Errorf("page anchor must reference page 1 or later")
		}
		if a.Highlight != nil && a.Highlight.End < a.Highlight.Start {
			return fmt.Errorf("highlight range end precedes start")
		}
	case AnchorLine:
		if a.Line < 1 {
			return fmt.Errorf("line anchor must reference line 1 or later")
		}
	}
	return nil
}

// String renders the anchor the way exports display it.
func (a Anchor) String() string {
	switch a.Shape {
	case AnchorPoint:
		if a.Zoom > 0 {
			return fmt.Sprintf("(%.1f, %.1f) @ %.0f%%", a.X, a.Y, a.Zoom)
		}
		return fmt.Sprintf("(%.1f, %.1f)", a.X, a.Y)
	case AnchorTime:
		total := int(a.Timestamp)
		return fmt.Sprintf("%02d:%02d", total/60, total%60)
	case AnchorPage:
		if a.Highlight != nil {
			return fmt.Sprintf("page %d [%d-%d]", a.Page, a.Highlight.Start, a.Highlight.End)
		}
		return fmt.Sprintf("page %d", a.Page)
	case AnchorLine:
		if a.Character > 0 {
			return fmt.Sprintf("line %d:%d", a.Line, a.Character)
		}
		return fmt.Sprintf("line %d", a.Line)
	}
	return ""
}

package models

// SourceKind identifies which scanner produced a candidate
type SourceKind string

const (
	SourceXbox     SourceKind = "xbox"
	SourceGamePass SourceKind = "gamepass"
	SourceManual   SourceKind = "manual"
)

// Status represents the pipeline state of a staged game
type Status string

const (
	StatusPending   Status = "pending"
	StatusScanning  Status = "scanning"
	StatusMatched   Status = "matched"
	StatusAmbiguous Status = "ambiguous"
	StatusReady     Status = "ready"
	StatusError     Status = "error"
)

// Terminal reports whether a status is an end state for a pipeline run
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusAmbiguous || s == StatusError
}

// ImageKind identifies an artwork slot on a staged game
type ImageKind string

const (
	ImageBoxArt ImageKind = "boxart"
	ImageBanner ImageKind = "banner"
	ImageLogo   ImageKind = "logo"
	ImageHero   ImageKind = "hero"
	ImageIcon   ImageKind = "icon"
)

// AllImageKinds lists every artwork slot in cache-key order
var AllImageKinds = []ImageKind{ImageBoxArt, ImageBanner, ImageLogo, ImageHero, ImageIcon}

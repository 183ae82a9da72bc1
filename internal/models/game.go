package models

import "time"

// ScanCandidate is the raw output of a source scanner: bare facts about
// something installed on disk, with no external identity attached yet.
type ScanCandidate struct {
	SourceKind       SourceKind
	DisplayNameGuess string // derived from folder/package naming, not authoritative
	InstallPath      string
	ExecutablePath   string // empty when no runnable binary was found
	PlatformID       string // opaque platform id (numeric appid, package family name), may be empty
	LaunchArgs       string
}

// PartialMetadata carries whatever artwork and text a provider managed to
// return for a resolved identity. Missing fields stay zero; acquisition
// failures degrade fields to missing rather than erroring.
type PartialMetadata struct {
	Description string
	ReleaseDate time.Time
	Genres      []string
	Developers  []string
	Publishers  []string
	Categories  []string
	AgeRating   string
	Rating      float64

	BoxArtURL string
	BannerURL string
	LogoURL   string
	HeroURL   string
	IconURL   string
}

// Empty reports whether acquisition produced nothing usable
func (m PartialMetadata) Empty() bool {
	return m.Description == "" && m.BoxArtURL == "" && m.BannerURL == "" &&
		m.LogoURL == "" && m.HeroURL == "" && m.IconURL == "" &&
		len(m.Genres) == 0 && len(m.Developers) == 0 && len(m.Publishers) == 0
}

// Merge fills fields that are still missing on m from other. Fields already
// populated are never overwritten, so earlier strategies win.
func (m *PartialMetadata) Merge(other PartialMetadata) {
	if m.Description == "" {
		m.Description = other.Description
	}
	if m.ReleaseDate.IsZero() {
		m.ReleaseDate = other.ReleaseDate
	}
	if len(m.Genres) == 0 {
		m.Genres = other.Genres
	}
	if len(m.Developers) == 0 {
		m.Developers = other.Developers
	}
	if len(m.Publishers) == 0 {
		m.Publishers = other.Publishers
	}
	if len(m.Categories) == 0 {
		m.Categories = other.Categories
	}
	if m.AgeRating == "" {
		m.AgeRating = other.AgeRating
	}
	if m.Rating == 0 {
		m.Rating = other.Rating
	}
	if m.BoxArtURL == "" {
		m.BoxArtURL = other.BoxArtURL
	}
	if m.BannerURL == "" {
		m.BannerURL = other.BannerURL
	}
	if m.LogoURL == "" {
		m.LogoURL = other.LogoURL
	}
	if m.HeroURL == "" {
		m.HeroURL = other.HeroURL
	}
	if m.IconURL == "" {
		m.IconURL = other.IconURL
	}
}

// URLFor returns the artwork URL for the given image kind
func (m PartialMetadata) URLFor(kind ImageKind) string {
	switch kind {
	case ImageBoxArt:
		return m.BoxArtURL
	case ImageBanner:
		return m.BannerURL
	case ImageLogo:
		return m.LogoURL
	case ImageHero:
		return m.HeroURL
	case ImageIcon:
		return m.IconURL
	}
	return ""
}

// SetURL stores an artwork URL into the slot for the given image kind
func (m *PartialMetadata) SetURL(kind ImageKind, url string) {
	switch kind {
	case ImageBoxArt:
		m.BoxArtURL = url
	case ImageBanner:
		m.BannerURL = url
	case ImageLogo:
		m.LogoURL = url
	case ImageHero:
		m.HeroURL = url
	case ImageIcon:
		m.IconURL = url
	}
}

// StagedGame is the pipeline's working record for one candidate. It is created
// post-dedup, mutated in place as stages complete, and handed by reference to
// the caller for commit or discard.
type StagedGame struct {
	ID string // uuid

	SourceKind SourceKind
	Candidate  ScanCandidate

	// Resolved identity
	Title        string
	ProviderName string
	ProviderID   string

	Status     Status
	StatusNote string // human-readable cause, set on error
	Ignored    bool

	Metadata PartialMetadata

	// Raw provider matches preserved for human disambiguation
	RawMatches []RawMatch

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RawMatch is the minimal, provider-agnostic view of a search result kept on
// ambiguous entries so a human can pick one later.
type RawMatch struct {
	Provider    string
	ID          string
	Title       string
	ReleaseDate time.Time
	Confidence  float64
}

// LibraryEntry is a confirmed library record as the deduplicator sees it.
// The commit path writes these; the scan path only reads them.
type LibraryEntry struct {
	ID          string `boltholdKey:"ID"`
	Title       string
	SourceKind  SourceKind
	InstallPath string
	ExePath     string
	LaunchArgs  string

	ProviderName string
	ProviderID   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CachedArtwork maps (GameID, Kind) to a durable local file. A missing record
// means "not cached"; it is never treated as corruption.
type CachedArtwork struct {
	Key       string `boltholdKey:"Key"` // gameID + "/" + kind
	GameID    string `boltholdIndex:"GameID"`
	Kind      ImageKind
	SourceURL string
	LocalPath string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ArtworkKey builds the cache key for a game id and image kind
func ArtworkKey(gameID string, kind ImageKind) string {
	return gameID + "/" + string(kind)
}

package video

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxTitleLength       = 200
	MaxURLLength         = 2048
	MaxDescriptionLength = 2000
)

// Category constants. Other tags are accepted; these are the ones offered.
const (
	CategoryGeneral  = "geral"
	CategoryServices = "cultos"
)

// Table is the change-feed table name for videos.
const Table = "videos"

// Categories lists the browsable categories with their labels.
var Categories = []Category{
	{Value: CategoryGeneral, Label: "Geral"},
	{Value: CategoryServices, Label: "Cultos"},
}

// User-facing messages of the admin screens.
const (
	MsgAdded   = "Vídeo adicionado com sucesso!"
	MsgUpdated = "Vídeo atualizado com sucesso!"
	MsgDeleted = "Vídeo excluído!"
	MsgEmpty   = "Nenhum vídeo encontrado."
)

// Domain errors
var (
	ErrTitleAndURLRequired = errors.New("Preencha pelo menos o título e a URL.")
	ErrEmptyTitle          = errors.New("O título não pode estar vazio.")
	ErrTitleTooLong        = errors.New("video title cannot exceed 200 characters")
	ErrURLTooLong          = errors.New("video URL cannot exceed 2048 characters")
	ErrDescriptionTooLong  = errors.New("video description cannot exceed 2000 characters")
	ErrNotConfirmed        = errors.New("delete requires confirmation")
	ErrNotFound            = errors.New("video not found")
)

// Category is a browsable subset of the catalog.
type Category struct {
	Value string
	Label string
}

// Video is one entry of the church's video library.
// INVARIANT: Title and URL are non-empty once persisted.
type Video struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Thumbnail   string    `json:"thumbnail"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}

// Patch is the partial update the edit flow submits.
type Patch struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Validate checks the fields the add flow requires.
// Only title and URL are mandatory; description, thumbnail and category are optional.
// PRE: none
// POST: returns nil if valid, the first violation otherwise
func (v *Video) Validate() error {
	if strings.TrimSpace(v.Title) == "" || strings.TrimSpace(v.URL) == "" {
		return ErrTitleAndURLRequired
	}
	if len(v.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if len(v.URL) > MaxURLLength || len(v.Thumbnail) > MaxURLLength {
		return ErrURLTooLong
	}
	if len(v.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// Normalize trims the patch and checks that the title is still present.
// PRE: none
// POST: Title and Description are trimmed; error if the title is empty
func (p *Patch) Normalize() error {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	if p.Title == "" {
		return ErrEmptyTitle
	}
	if len(p.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if len(p.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// Apply copies the patched fields onto the video.
func (p Patch) Apply(v *Video) {
	v.Title = p.Title
	v.Description = p.Description
}

// ThumbnailOrDerived returns the stored thumbnail, falling back to the
// YouTube preview image when the URL is a YouTube link.
func (v *Video) ThumbnailOrDerived() string {
	if v.Thumbnail != "" {
		return v.Thumbnail
	}
	return YouTubeThumbnail(v.URL, QualityHigh)
}

// ThumbnailQuality selects the YouTube preview image size.
type ThumbnailQuality string

const (
	QualityDefault ThumbnailQuality = "default"
	QualityMedium  ThumbnailQuality = "mq"
	QualityHigh    ThumbnailQuality = "hq"
	QualityMax     ThumbnailQuality = "max"
)

var youtubeIDRegex = regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})(?:\?|&|$)`)

// YouTubeID extracts the 11-character video ID, or "" if none is found.
func YouTubeID(url string) string {
	m := youtubeIDRegex.FindStringSubmatch(url)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// YouTubeThumbnail returns the preview image URL for a YouTube link, or "".
func YouTubeThumbnail(url string, quality ThumbnailQuality) string {
	id := YouTubeID(url)
	if id == "" {
		return ""
	}
	base := "https://img.youtube.com/vi/" + id + "/"
	switch quality {
	case QualityMedium:
		return base + "mqdefault.jpg"
	case QualityHigh:
		return base + "hqdefault.jpg"
	case QualityMax:
		return base + "maxresdefault.jpg"
	default:
		return base + "0.jpg"
	}
}

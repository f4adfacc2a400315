package dto

import "time"

type PinOwner struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Service string `json:"service"`
}

type PinSubmission struct {
	Owner          PinOwner `json:"owner"`
	ImgDescription string   `json:"imgDescription"`
	ImgLink        string   `json:"imgLink"`
}

// Pinner is the savedBy entry sent with a save (PUT) request.
type Pinner struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Service string `json:"service"`
}

type TagEntry struct {
	Tag string `json:"tag"`
}

// FilteredPin is the viewer-scoped projection of a pin. Owner-only fields
// (visionApiTags, originalImgLink) are dropped for other viewers.
type FilteredPin struct {
	ID              string     `json:"_id"`
	ImgDescription  string     `json:"imgDescription"`
	ImgLink         string     `json:"imgLink"`
	Owner           string     `json:"owner"`
	SavedBy         []string   `json:"savedBy"`
	Owns            bool       `json:"owns"`
	HasSaved        bool       `json:"hasSaved"`
	Tags            []TagEntry `json:"tags"`
	VisionAPITags   []string   `json:"visionApiTags,omitempty"`
	OriginalImgLink string     `json:"originalImgLink,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type AIImageRequest struct {
	Description string `json:"description"`
}

type AIImageResponse struct {
	ImgURL string  `json:"imgURL"`
	Title  string  `json:"title"`
	ID     *string `json:"_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// GalleryID holds the raw gallery identifier as received. Callers send it
// either as a JSON string or a JSON number, so parsing is deferred to
// MatchRequest.Validate where a bad value becomes a client error.
type GalleryID string

func (g *GalleryID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*g = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("gallery id: %w", err)
		}
		*g = GalleryID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("gallery id: %w", err)
	}
	*g = GalleryID(n.String())
	return nil
}

// MatchRequest is the transport-independent input of a selfie match.
type MatchRequest struct {
	GalleryID GalleryID `json:"galleryId"`
	ImageKey  string    `json:"key"`
}

// UnmarshalJSON accepts "imageKey" as an alias of "key".
func (r *MatchRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		GalleryID GalleryID `json:"galleryId"`
		Key       string    `json:"key"`
		ImageKey  string    `json:"imageKey"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.GalleryID = raw.GalleryID
	r.ImageKey = raw.Key
	if r.ImageKey == "" {
		r.ImageKey = raw.ImageKey
	}
	return nil
}

// Validate checks both fields and returns the parsed gallery id.
func (r MatchRequest) Validate() (int64, error) {
	rawID := strings.TrimSpace(string(r.GalleryID))
	if rawID == "" {
		return 0, ErrGalleryIDRequired
	}

	if strings.TrimSpace(r.ImageKey) == "" {
		return 0, ErrImageKeyRequired
	}

	galleryID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return 0, ErrInvalidGalleryID.WithError(err)
	}

	return galleryID, nil
}

package models

import "time"

// ScanResult is the recognition output for one photographed monument.
// Producer screens hand it to consumer screens through the handoff cache.
type ScanResult struct {
	MonumentName string            `json:"monument_name" validate:"required,max=200"`
	Confidence   float64           `json:"confidence" validate:"gte=0,lte=1"`
	Description  string            `json:"description,omitempty"`
	Style        string            `json:"style,omitempty" validate:"omitempty,max=100"`
	Period       string            `json:"period,omitempty"`
	Location     *Location         `json:"location,omitempty"`
	ImageURL     string            `json:"image_url,omitempty" validate:"omitempty,url"`
	AudioURL     string            `json:"audio_url,omitempty" validate:"omitempty,url"`
	Facts        []string          `json:"facts,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	ScannedAt    time.Time         `json:"scanned_at"`
}

// Location is where the monument stands
type Location struct {
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

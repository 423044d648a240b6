package workspace

import (
	"time"
)

// Image is an uploaded picture kept as a data URI.
type Image struct {
	DataURI  string `json:"dataUri" msgpack:"data_uri"`
	MIMEType string `json:"mimeType" msgpack:"mime_type"`
}

// Take is one generated voiceover.
type Take struct {
	ID        string    `json:"id" msgpack:"id"`
	URL       string    `json:"url" msgpack:"url"`
	Voice     string    `json:"voice" msgpack:"voice"`
	CreatedAt time.Time `json:"timestamp" msgpack:"created_at"`
}

// Scene is one shot of a project.
type Scene struct {
	ID     string `json:"id" msgpack:"id"`
	Script string `json:"script" msgpack:"script"`

	BaseImage      *Image `json:"baseImage" msgpack:"base_image"`
	GeneratedImage string `json:"generatedImage,omitempty" msgpack:"generated_image"`
	VideoURL       string `json:"videoUrl,omitempty" msgpack:"video_url"`

	// Voiceovers holds the takes, newest first.
	Voiceovers []Take `json:"voiceoverHistory" msgpack:"voiceovers"`
}

// Project is a script and its scenes.
type Project struct {
	ID        string    `json:"id" msgpack:"id"`
	Title     string    `json:"title" msgpack:"title"`
	RawScript string    `json:"rawScript" msgpack:"raw_script"`
	Scenes    []Scene   `json:"scenes" msgpack:"scenes"`
	CreatedAt time.Time `json:"createdAt" msgpack:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" msgpack:"updated_at"`
}

// Scene returns the scene with the given id.
func (p *Project) Scene(id string) (*Scene, bool) {
	for i := range p.Scenes {
		if p.Scenes[i].ID == id {
			return &p.Scenes[i], true
		}
	}
	return nil, false
}

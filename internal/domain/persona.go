package domain

// Persona is a selectable identity the generation pipeline impersonates.
// Reference data only: owned by the persona catalog, never mutated here.
type Persona struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IconURL     string `json:"icon_url"`
	StylePrompt string `json:"style_prompt,omitempty"`
	VoiceID     string `json:"voice_id,omitempty"`
	VideoPath   string `json:"video_path,omitempty"`
}

// PublicView strips pipeline-internal fields before the persona leaves the API.
func (p Persona) PublicView() Persona {
	return Persona{ID: p.ID, Name: p.Name, IconURL: p.IconURL}
}

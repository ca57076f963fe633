// package services contains typed endpoint wrappers for the scribe backend.
//
// Audio, templates, notifications. Each service is a thin layer over
// [api.Client]: it names endpoints and shapes payloads, and inherits bearer
// authorization and refresh-and-replay from the client. No protocol logic
// lives here.
package services

import "time"

// Transcript represents one transcribed audio file.
type Transcript struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Status       string              `json:"status"` // pending, processing, completed, failed
	Language     string              `json:"language,omitempty"`
	DurationSecs int                 `json:"duration_seconds"`
	Text         string              `json:"text,omitempty"`
	Segments     []TranscriptSegment `json:"segments,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// TranscriptSegment is a timestamped slice of a transcript.
type TranscriptSegment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker,omitempty"`
	Text    string  `json:"text"`
}

// ChatMessage is one turn in the chat-with-AI thread attached to a transcript.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // user or assistant
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Template is a reusable prompt/output template.
type Template struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Notification is a message delivered to the user by the backend.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

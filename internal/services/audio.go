package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"path/filepath"

	"github.com/scribeworks/scribe/internal/api"
)

// AudioService wraps the transcription endpoints.
type AudioService struct {
	client *api.Client
	root   string
}

// NewAudioService creates an audio service rooted at the given endpoint
// prefix (e.g. "/audio").
func NewAudioService(client *api.Client, root string) *AudioService {
	if root == "" {
		root = "/audio"
	}
	return &AudioService{client: client, root: root}
}

// Upload submits an audio file for transcription and returns the created
// transcript in its pending state.
//
// The file goes up as multipart form data; the multipart content type
// overrides the client's JSON default.
func (s *AudioService) Upload(ctx context.Context, filename string, file io.Reader) (*Transcript, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	var transcript Transcript
	err = s.client.Post(ctx, s.root+"/upload/", buf.Bytes(), &transcript,
		api.WithHeader("Content-Type", writer.FormDataContentType()))
	if err != nil {
		return nil, err
	}

	return &transcript, nil
}

// List retrieves the user's transcripts, newest first.
func (s *AudioService) List(ctx context.Context) ([]Transcript, error) {
	var transcripts []Transcript
	if err := s.client.Get(ctx, s.root+"/transcriptions/", &transcripts); err != nil {
		return nil, err
	}
	return transcripts, nil
}

// Get retrieves a single transcript with its full text and segments.
func (s *AudioService) Get(ctx context.Context, id string) (*Transcript, error) {
	var transcript Transcript
	endpoint := fmt.Sprintf("%s/transcriptions/%s/", s.root, url.PathEscape(id))
	if err := s.client.Get(ctx, endpoint, &transcript); err != nil {
		return nil, err
	}
	return &transcript, nil
}

// Delete removes a transcript.
func (s *AudioService) Delete(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/transcriptions/%s/", s.root, url.PathEscape(id))
	return s.client.Delete(ctx, endpoint, nil)
}

// ChatHistory retrieves the chat thread attached to a transcript.
func (s *AudioService) ChatHistory(ctx context.Context, id string) ([]ChatMessage, error) {
	var messages []ChatMessage
	endpoint := fmt.Sprintf("%s/transcriptions/%s/chat/", s.root, url.PathEscape(id))
	if err := s.client.Get(ctx, endpoint, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// Chat sends a prompt about a transcript and returns the assistant's reply.
func (s *AudioService) Chat(ctx context.Context, id, prompt string) (*ChatMessage, error) {
	var reply ChatMessage
	endpoint := fmt.Sprintf("%s/transcriptions/%s/chat/", s.root, url.PathEscape(id))
	body := map[string]string{"content": prompt}
	if err := s.client.Post(ctx, endpoint, body, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

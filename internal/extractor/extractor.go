// Package extractor wraps the external face embedding service behind a
// small interface. The HTTP implementation authenticates once at startup;
// nothing may call Extract before that initialization has succeeded.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"

	"face-attend/internal/clients/face_api_client"
	"face-attend/internal/errs"
	"face-attend/internal/model/face_api_model"
)

// Mode selects how many faces a detect call returns.
type Mode string

const (
	// ModeSingle returns the single best face; used at enrollment.
	ModeSingle Mode = "single"

	// ModeAll returns every detected face; used at reconciliation.
	ModeAll Mode = "all"
)

// Face is one detected face with its embedding vector.
type Face struct {
	Embedding []float32
	Bbox      face_api_model.Bbox
	Score     float64
}

// Extractor yields zero or more faces for an image. An empty slice with a
// nil error means no face was found.
type Extractor interface {
	Extract(ctx context.Context, imageData []byte, mode Mode) ([]Face, error)
}

// FaceApiExtractor talks to the face embedding HTTP service.
type FaceApiExtractor struct {
	token string
}

// New logs in to the face API and returns a ready extractor. A failure
// here is fatal to the process; there is no degraded mode.
func New(ctx context.Context) (e *FaceApiExtractor, err error) {

	email, password := face_api_client.Credentials()

	reqBody := face_api_model.FaceApiLoginRequest{
		Email:    email,
		Password: password,
	}

	reqBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	data, err := face_api_client.Login(ctx, reqBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("face api login failed: %w", err)
	}

	var response face_api_model.FaceApiLoginResponse
	if err = json.Unmarshal(data, &response); err != nil {
		return nil, err
	}

	if response.Data.AccessToken == "" {
		return nil, errs.ErrNotReady
	}

	return &FaceApiExtractor{token: response.Data.AccessToken}, nil
}

// Extract runs face detection and embedding on one image. Every call
// carries its own deadline so a stuck upstream call cannot pin a worker.
func (e *FaceApiExtractor) Extract(ctx context.Context, imageData []byte, mode Mode) (faces []Face, err error) {

	if e == nil || e.token == "" {
		return nil, errs.ErrNotReady
	}

	ctx, cancel := context.WithTimeout(ctx, face_api_client.Timeout())
	defer cancel()

	data, err := face_api_client.DetectFaces(ctx, imageData, string(mode), e.token)
	if err != nil {
		return nil, err
	}

	var response face_api_model.FaceApiDetectResponse
	if err = json.Unmarshal(data, &response); err != nil {
		return nil, err
	}

	faces = make([]Face, 0, len(response.Data))
	for _, faceData := range response.Data {
		faces = append(faces, Face{
			Embedding: faceData.Embedding,
			Bbox:      faceData.Bbox,
			Score:     faceData.Score,
		})
	}

	return faces, nil
}

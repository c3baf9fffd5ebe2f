// Package face_api_model provides models for interacting with the face
// embedding service.
package face_api_model

// FaceApiLoginRequest represents a login request for the embedding service.
type FaceApiLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// FaceApiLoginResponse contains authentication data from the embedding service.
type FaceApiLoginResponse struct {
	Data       Data `json:"data"`
	StatusCode int  `json:"status_code"`
}

// Data contains authentication tokens.
type Data struct {
	AccessToken string `json:"access_token"`
}

// FaceApiDetectResponse holds the response from a detect request. Data is
// empty when no face was found.
type FaceApiDetectResponse struct {
	Data       []FaceData `json:"data"`
	Rotation   int        `json:"rotation"`
	StatusCode int        `json:"status_code"`
}

// FaceData contains one detected face with its embedding vector.
type FaceData struct {
	Embedding []float32  `json:"embedding"`
	Bbox      Bbox       `json:"bbox"`
	Landmarks []Landmark `json:"landmarks"`
	Score     float64    `json:"score"`
}

// Bbox represents the bounding box of a detected face.
type Bbox struct {
	Height int `json:"height"`
	Width  int `json:"width"`
	X      int `json:"x"`
	Y      int `json:"y"`
}

// Landmark represents a facial landmark coordinate.
type Landmark struct {
	X int `json:"x"`
	Y int `json:"y"`
}

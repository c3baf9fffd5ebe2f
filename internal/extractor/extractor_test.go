package extractor_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"face-attend/internal/extractor"
	"face-attend/internal/model/face_api_model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFaceApiServer(t *testing.T, faces []face_api_model.FaceData) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		var req face_api_model.FaceApiLoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "api@example.com", req.Email)

		_ = json.NewEncoder(w).Encode(face_api_model.FaceApiLoginResponse{
			Data: face_api_model.Data{AccessToken: "test-token"},
		})
	})

	mux.HandleFunc("/detect", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(face_api_model.FaceApiDetectResponse{
			Data: faces,
		})
	})

	return httptest.NewServer(mux)
}

func setFaceApiEnvs(t *testing.T, url string) {
	t.Helper()
	t.Setenv("FACE_API__URL", url)
	t.Setenv("FACE_API__USER", "api@example.com")
	t.Setenv("FACE_API__PASS", "secret")
}

func Test_FaceApiExtractor_Extract(t *testing.T) {

	srv := newFaceApiServer(t, []face_api_model.FaceData{
		{Embedding: []float32{1, 2, 3}, Score: 0.99},
		{Embedding: []float32{4, 5, 6}, Score: 0.42},
	})
	defer srv.Close()

	setFaceApiEnvs(t, srv.URL)

	ext, err := extractor.New(context.Background())
	require.NoError(t, err)

	faces, err := ext.Extract(context.Background(), []byte("img"), extractor.ModeAll)
	require.NoError(t, err)

	require.Len(t, faces, 2)
	assert.Equal(t, []float32{1, 2, 3}, faces[0].Embedding)
	assert.Equal(t, 0.99, faces[0].Score)
}

func Test_FaceApiExtractor_Extract_NoFace(t *testing.T) {

	srv := newFaceApiServer(t, nil)
	defer srv.Close()

	setFaceApiEnvs(t, srv.URL)

	ext, err := extractor.New(context.Background())
	require.NoError(t, err)

	faces, err := ext.Extract(context.Background(), []byte("img"), extractor.ModeSingle)
	require.NoError(t, err)
	assert.Empty(t, faces)
}

func Test_New_FailsWithoutToken(t *testing.T) {

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(face_api_model.FaceApiLoginResponse{})
	}))
	defer srv.Close()

	setFaceApiEnvs(t, srv.URL)

	_, err := extractor.New(context.Background())
	require.Error(t, err)
}

package face_api_client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"face-attend/tools"
)

const (
	faceApiUrlEnvName      = "FACE_API__URL"
	faceApiUserEnvName     = "FACE_API__USER"
	faceApiPasswordEnvName = "FACE_API__PASS"
	faceApiTimeoutEnvName  = "FACE_API__TIMEOUT"

	defaultTimeoutSeconds = 15
)

// DetectFaces sends image bytes to the face API detect endpoint. Mode is
// "single" for the single-best-face response used at enrollment or "all"
// for every face in the image.
func DetectFaces(ctx context.Context, imageData []byte, mode, token string) (b []byte, err error) {

	url := fmt.Sprintf("%s/detect?mode=%s", os.Getenv(faceApiUrlEnvName), mode)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(imageData))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("Authorization", "Bearer "+token)
	req.ContentLength = int64(len(imageData))

	return reqUrl(req)
}

// Login sends a request to the face API to obtain a JWT token.
func Login(ctx context.Context, body []byte) (b []byte, err error) {

	tools.CheckEnvs(faceApiUrlEnvName, faceApiUserEnvName, faceApiPasswordEnvName)

	url := fmt.Sprintf("%s/login", os.Getenv(faceApiUrlEnvName))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	return reqUrl(req)
}

// Credentials returns the configured face API login pair.
func Credentials() (email, password string) {
	return os.Getenv(faceApiUserEnvName), os.Getenv(faceApiPasswordEnvName)
}

// Timeout is the per-call deadline for face API requests. A stuck detect
// call must not outlive it.
func Timeout() time.Duration {
	return time.Duration(tools.EnvInt(faceApiTimeoutEnvName, defaultTimeoutSeconds)) * time.Second
}

// reqUrl makes an HTTP request and returns the response and an error.
func reqUrl(req *http.Request) (data []byte, err error) {

	client := &http.Client{Timeout: Timeout()}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 && resp.StatusCode <= 599 {
		return nil, errors.New("face api returned error with status: " + resp.Status)
	}

	return data, nil
}

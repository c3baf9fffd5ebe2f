package enroll_service_test

import (
	"context"
	"errors"
	"testing"

	"face-attend/internal/errs"
	"face-attend/internal/extractor"
	"face-attend/internal/model/roster_model"
	"face-attend/internal/repo"
	"face-attend/internal/service/enroll_service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExtractor resolves each image to the faces configured for its first
// byte.
type fakeExtractor struct {
	faces map[byte][]extractor.Face
	errs  map[byte]error
}

func (f *fakeExtractor) Extract(_ context.Context, imageData []byte, _ extractor.Mode) ([]extractor.Face, error) {
	key := imageData[0]
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	return f.faces[key], nil
}

// fakeIdentityRepo implements repo.Identity in memory.
type fakeIdentityRepo struct {
	existing   map[string]*roster_model.Identity
	created    *roster_model.Identity
	embeddings []*roster_model.Embedding
	createErr  error
}

func (f *fakeIdentityRepo) GetIdentityByExternalKey(externalKey string) (*roster_model.Identity, error) {
	return f.existing[externalKey], nil
}

func (f *fakeIdentityRepo) GetIdentityByKey(string) (*roster_model.Identity, error) {
	return nil, nil
}

func (f *fakeIdentityRepo) CreateIdentityWithEmbeddings(identity *roster_model.Identity, embeddings []*roster_model.Embedding) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = identity
	f.embeddings = embeddings
	return nil
}

func (f *fakeIdentityRepo) GetEmbeddingsByIdentityKeys([]string) ([]roster_model.Embedding, error) {
	return nil, nil
}

func (f *fakeIdentityRepo) CountEmbeddings(string) (int, error) {
	return len(f.embeddings), nil
}

func face(vals ...float32) []extractor.Face {
	return []extractor.Face{{Embedding: vals}}
}

func img(key byte, ref string) roster_model.ImageBlob {
	return roster_model.ImageBlob{Ref: ref, Data: []byte{key}}
}

func samePersonImages() []roster_model.ImageBlob {
	return []roster_model.ImageBlob{img(1, "a.jpg"), img(2, "b.jpg"), img(3, "c.jpg")}
}

func samePersonFaces() map[byte][]extractor.Face {
	return map[byte][]extractor.Face{
		1: face(0, 0),
		2: face(0.1, 0),
		3: face(0, 0.1),
	}
}

func newService(store *fakeIdentityRepo, ext extractor.Extractor, cfg enroll_service.Config) *enroll_service.EnrollService {
	return enroll_service.New(&repo.Repo{Identity: store}, ext, cfg)
}

func Test_EnrollService_Enroll_RejectsWrongImageCount(t *testing.T) {

	store := &fakeIdentityRepo{}
	s := newService(store, &fakeExtractor{}, enroll_service.Config{})

	_, err := s.Enroll(context.Background(), "student-42", "Sam Doe", []roster_model.ImageBlob{img(1, "a.jpg"), img(2, "b.jpg")})

	var inputErr *errs.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Nil(t, store.created)
}

func Test_EnrollService_Enroll_RejectsDuplicateExternalKey(t *testing.T) {

	store := &fakeIdentityRepo{
		existing: map[string]*roster_model.Identity{
			"student-42": {IdentityKey: "key-1", ExternalKey: "student-42"},
		},
	}
	s := newService(store, &fakeExtractor{faces: samePersonFaces()}, enroll_service.Config{})

	_, err := s.Enroll(context.Background(), "student-42", "Sam Doe", samePersonImages())

	var conflictErr *errs.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Nil(t, store.created)
}

func Test_EnrollService_Enroll_RejectsImageWithoutFace(t *testing.T) {

	faces := samePersonFaces()
	faces[2] = nil // second image yields no face

	store := &fakeIdentityRepo{}
	s := newService(store, &fakeExtractor{faces: faces}, enroll_service.Config{})

	_, err := s.Enroll(context.Background(), "student-42", "Sam Doe", samePersonImages())

	var validationErr *errs.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.ErrorIs(t, err, errs.ErrNoFaceDetected)
	assert.Equal(t, 1, validationErr.ImageIndex)
	assert.Nil(t, store.created)
}

func Test_EnrollService_Enroll_StrictModeRejectsMultipleFaces(t *testing.T) {

	faces := samePersonFaces()
	faces[3] = append(face(0, 0.1), extractor.Face{Embedding: []float32{5, 5}})

	store := &fakeIdentityRepo{}

	// Lenient mode uses the best face and enrolls.
	s := newService(store, &fakeExtractor{faces: faces}, enroll_service.Config{})
	_, err := s.Enroll(context.Background(), "student-42", "Sam Doe", samePersonImages())
	require.NoError(t, err)

	// Strict mode rejects the same submission.
	strictStore := &fakeIdentityRepo{}
	s = newService(strictStore, &fakeExtractor{faces: faces}, enroll_service.Config{StrictSingleFace: true})
	_, err = s.Enroll(context.Background(), "student-43", "Sam Doe", samePersonImages())

	var validationErr *errs.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.ErrorIs(t, err, errs.ErrMultipleFaces)
	assert.Nil(t, strictStore.created)
}

func Test_EnrollService_Enroll_RejectsDifferentPeople(t *testing.T) {

	faces := samePersonFaces()
	faces[3] = face(0.75, 0) // cross-image distance 0.75 > 0.6

	store := &fakeIdentityRepo{}
	s := newService(store, &fakeExtractor{faces: faces}, enroll_service.Config{})

	_, err := s.Enroll(context.Background(), "student-42", "Sam Doe", samePersonImages())

	var validationErr *errs.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "not of the same person")
	assert.Nil(t, store.created)
}

func Test_EnrollService_Enroll_CreatesIdentityWithThreeEmbeddings(t *testing.T) {

	store := &fakeIdentityRepo{}
	s := newService(store, &fakeExtractor{faces: samePersonFaces()}, enroll_service.Config{})

	identity, err := s.Enroll(context.Background(), "student-42", "Sam Doe", samePersonImages())
	require.NoError(t, err)

	require.NotNil(t, store.created)
	assert.NotEmpty(t, identity.IdentityKey)
	assert.Equal(t, "student-42", identity.ExternalKey)
	assert.Equal(t, "Sam Doe", identity.DisplayName)

	require.Len(t, store.embeddings, enroll_service.RequiredImages)
	assert.Equal(t, "a.jpg", store.embeddings[0].SourceRef)
	assert.Equal(t, "b.jpg", store.embeddings[1].SourceRef)
	assert.Equal(t, "c.jpg", store.embeddings[2].SourceRef)
	assert.Equal(t, []float32{0, 0}, store.embeddings[0].Vector.Slice())
}

func Test_EnrollService_Enroll_StoreFailure(t *testing.T) {

	store := &fakeIdentityRepo{createErr: errors.New("whoops, error")}
	s := newService(store, &fakeExtractor{faces: samePersonFaces()}, enroll_service.Config{})

	_, err := s.Enroll(context.Background(), "student-42", "Sam Doe", samePersonImages())

	var storeErr *errs.StoreError
	require.ErrorAs(t, err, &storeErr)
}

func Test_EnrollService_GetIdentity(t *testing.T) {

	store := &fakeIdentityRepo{
		existing: map[string]*roster_model.Identity{
			"student-42": {IdentityKey: "key-1", ExternalKey: "student-42", DisplayName: "Sam Doe"},
		},
		embeddings: make([]*roster_model.Embedding, 3),
	}
	s := newService(store, &fakeExtractor{}, enroll_service.Config{})

	profile, err := s.GetIdentity("student-42")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, 3, profile.EmbeddingCount)

	profile, err = s.GetIdentity("missing")
	require.NoError(t, err)
	assert.Nil(t, profile)
}

// Package enroll_service turns raw enrollment images into a single
// verified identity record with its stored embeddings. All extraction and
// validation happens before any persistence, so a failed enrollment never
// leaves partial state behind.
package enroll_service

import (
	"context"
	"errors"
	"log"

	"face-attend/internal/errs"
	"face-attend/internal/extractor"
	"face-attend/internal/model/roster_model"
	"face-attend/internal/recognize"
	"face-attend/internal/repo"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"
)

// RequiredImages is the number of enrollment photos per identity.
const RequiredImages = 3

// Config controls enrollment validation.
type Config struct {
	// Threshold is the maximum pairwise embedding distance at which the
	// enrollment photos count as the same person.
	Threshold float64

	// StrictSingleFace rejects enrollment photos containing more than one
	// face instead of using the best one.
	StrictSingleFace bool
}

type EnrollService struct {
	repo *repo.Repo
	ext  extractor.Extractor
	cfg  Config
}

func New(repo *repo.Repo, ext extractor.Extractor, cfg Config) *EnrollService {
	if cfg.Threshold <= 0 {
		cfg.Threshold = recognize.DefaultThreshold
	}
	return &EnrollService{
		repo: repo,
		ext:  ext,
		cfg:  cfg,
	}
}

// Enroll validates the images and creates the identity with exactly
// RequiredImages embeddings, atomically. Per-image extraction fans out
// concurrently and joins before the consistency check.
func (s *EnrollService) Enroll(ctx context.Context, externalKey, displayName string, images []roster_model.ImageBlob) (identity *roster_model.Identity, err error) {

	if len(images) != RequiredImages {
		return nil, errs.Input("exactly %d images required", RequiredImages)
	}
	if externalKey == "" {
		return nil, errs.Input("external key cannot be empty")
	}

	existing, err := s.repo.Identity.GetIdentityByExternalKey(externalKey)
	if err != nil {
		return nil, errs.Store("check duplicate identity", err)
	}
	if existing != nil {
		return nil, errs.Conflict("duplicate identity")
	}

	vectors, err := s.extractAll(ctx, images)
	if err != nil {
		return nil, err
	}

	// Pairwise consistency gate: every photo must be of the same person.
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			if d := recognize.Distance(vectors[i], vectors[j]); d > s.cfg.Threshold {
				log.Printf("enrollment rejected for %s: images %d and %d differ by %.3f", externalKey, i+1, j+1, d)
				return nil, errs.Validation("images are not of the same person", -1, nil)
			}
		}
	}

	identity = &roster_model.Identity{
		IdentityKey: uuid.NewString(),
		ExternalKey: externalKey,
		DisplayName: displayName,
	}

	embeddings := make([]*roster_model.Embedding, len(vectors))
	for i, vec := range vectors {
		embeddings[i] = &roster_model.Embedding{
			Vector:    pgvector.NewVector(vec),
			SourceRef: images[i].Ref,
		}
	}

	if err = s.repo.Identity.CreateIdentityWithEmbeddings(identity, embeddings); err != nil {
		// The store's unique index is the real duplicate guarantee; a
		// racing enrollment surfaces here as a conflict, not a store error.
		var conflict *errs.ConflictError
		if errors.As(err, &conflict) {
			return nil, err
		}
		return nil, errs.Store("create identity", err)
	}

	return identity, nil
}

// extractAll runs the extractor over every enrollment image concurrently
// and returns one embedding per image, in image order.
func (s *EnrollService) extractAll(ctx context.Context, images []roster_model.ImageBlob) (vectors [][]float32, err error) {

	vectors = make([][]float32, len(images))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(RequiredImages)

	for i, img := range images {
		idx, blob := i, img
		g.Go(func() error {

			faces, err := s.ext.Extract(ctx, blob.Data, extractor.ModeSingle)
			if err != nil {
				return errs.Validation("face extraction failed", idx, err)
			}

			if len(faces) == 0 {
				return errs.Validation("no face detected", idx, errs.ErrNoFaceDetected)
			}

			if s.cfg.StrictSingleFace && len(faces) > 1 {
				return errs.Validation("multiple faces detected", idx, errs.ErrMultipleFaces)
			}

			vectors[idx] = faces[0].Embedding
			return nil
		})
	}

	if err = g.Wait(); err != nil {
		return nil, err
	}

	return vectors, nil
}

// GetIdentity returns the identity bound to an external key along with its
// stored embedding count.
func (s *EnrollService) GetIdentity(externalKey string) (profile *roster_model.IdentityProfile, err error) {

	identity, err := s.repo.Identity.GetIdentityByExternalKey(externalKey)
	if err != nil {
		return nil, errs.Store("get identity", err)
	}
	if identity == nil {
		return nil, nil
	}

	count, err := s.repo.Identity.CountEmbeddings(identity.IdentityKey)
	if err != nil {
		return nil, errs.Store("count embeddings", err)
	}

	return &roster_model.IdentityProfile{
		Identity:       *identity,
		EmbeddingCount: count,
	}, nil
}

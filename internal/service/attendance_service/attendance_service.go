// Package attendance_service reconciles a session roster against faces
// detected in class images and persists the resulting attendance marks.
package attendance_service

import (
	"context"
	"log"
	"sort"
	"sync"

	"face-attend/internal/clients/blob_client"
	"face-attend/internal/errs"
	"face-attend/internal/extractor"
	"face-attend/internal/model/roster_model"
	"face-attend/internal/recognize"
	"face-attend/internal/repo"

	"golang.org/x/sync/errgroup"
)

// fanOutLimit bounds how many probe images are fetched and extracted at
// once within a single reconciliation.
const fanOutLimit = 10

// Config controls matching and background execution.
type Config struct {
	// Threshold is the maximum embedding distance for a probe face to
	// count as a roster identity.
	Threshold float64

	// Workers is the size of the background reconciliation pool.
	Workers int

	// QueueSize is the background job buffer.
	QueueSize int
}

type AttendanceService struct {
	repo   *repo.Repo
	ext    extractor.Extractor
	cfg    Config
	runner *runner

	// fetch resolves a probe ref to image bytes; swapped out in tests.
	fetch func(ctx context.Context, ref string) ([]byte, error)
}

func New(repo *repo.Repo, ext extractor.Extractor, cfg Config) *AttendanceService {
	if cfg.Threshold <= 0 {
		cfg.Threshold = recognize.DefaultThreshold
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 32
	}

	s := &AttendanceService{
		repo:  repo,
		ext:   ext,
		cfg:   cfg,
		fetch: blob_client.Fetch,
	}
	s.runner = startRunner(s, cfg.Workers, cfg.QueueSize)

	return s
}

// Reconcile matches the probe images against the roster and upserts a mark
// for every roster identity. Identities outside the roster can never be
// marked present for the session. Probe images fan out concurrently; a
// failed image is logged and skipped, never aborting the run.
func (s *AttendanceService) Reconcile(ctx context.Context, sessionKey string, roster []string, probes []roster_model.ImageBlob) (outcome *roster_model.Outcome, err error) {

	roster = dedupe(roster)
	if sessionKey == "" {
		return nil, errs.Input("session key cannot be empty")
	}
	if len(roster) == 0 {
		return nil, errs.Input("roster cannot be empty")
	}

	embeddings, err := s.repo.Identity.GetEmbeddingsByIdentityKeys(roster)
	if err != nil {
		return nil, errs.Store("load roster embeddings", err)
	}

	// A roster with zero resolvable embeddings still reconciles: nobody
	// matches, everyone is marked absent.
	matcher := recognize.NewMatcher(recognize.GroupByIdentity(embeddings), s.cfg.Threshold)

	present := s.matchProbes(ctx, sessionKey, matcher, probes)

	outcome = &roster_model.Outcome{
		SessionKey: sessionKey,
		Present:    make([]string, 0, len(present)),
		Absent:     make([]string, 0, len(roster)),
	}
	for _, identityKey := range roster {
		if present[identityKey] {
			outcome.Present = append(outcome.Present, identityKey)
		} else {
			outcome.Absent = append(outcome.Absent, identityKey)
		}
	}

	// Absent pass first, then present, so a rerun with different
	// detections flips statuses and no stale present mark survives.
	if err = s.repo.Attendance.UpsertMarks(sessionKey, outcome.Absent, roster_model.StatusAbsent); err != nil {
		return nil, errs.Store("mark absent", err)
	}
	if err = s.repo.Attendance.UpsertMarks(sessionKey, outcome.Present, roster_model.StatusPresent); err != nil {
		return nil, errs.Store("mark present", err)
	}

	return outcome, nil
}

// matchProbes extracts and classifies every face in every probe image and
// returns the union of matched roster identities. Per-image results are
// accumulated locally and merged under a lock after each image completes.
func (s *AttendanceService) matchProbes(ctx context.Context, sessionKey string, matcher *recognize.Matcher, probes []roster_model.ImageBlob) (present map[string]bool) {

	present = make(map[string]bool)

	if matcher.Len() == 0 || len(probes) == 0 {
		return present
	}

	g := new(errgroup.Group)
	g.SetLimit(fanOutLimit)

	var mu sync.Mutex

	for _, probe := range probes {
		blob := probe
		g.Go(func() error {

			faces, err := s.ext.Extract(ctx, blob.Data, extractor.ModeAll)
			if err != nil {
				log.Println(errs.Extraction(blob.Ref, err))
				return nil
			}

			var hits []string
			for _, face := range faces {
				if identityKey, distance, ok := matcher.Classify(face.Embedding); ok {
					log.Printf("session %s: matched %s at distance %.3f in %s", sessionKey, identityKey, distance, blob.Ref)
					hits = append(hits, identityKey)
				}
			}

			mu.Lock()
			for _, identityKey := range hits {
				present[identityKey] = true
			}
			mu.Unlock()

			return nil
		})
	}
	_ = g.Wait()

	return present
}

// ReconcileRefs fetches every probe reference via blob intake and runs
// Reconcile on the results. A reference that fails to download is logged
// and skipped.
func (s *AttendanceService) ReconcileRefs(ctx context.Context, sessionKey string, roster []string, imageRefs []string) (outcome *roster_model.Outcome, err error) {

	probes := make([]roster_model.ImageBlob, 0, len(imageRefs))

	g := new(errgroup.Group)
	g.SetLimit(fanOutLimit)

	var mu sync.Mutex

	for _, ref := range imageRefs {
		ref := ref
		g.Go(func() error {

			data, err := s.fetch(ctx, ref)
			if err != nil {
				log.Println(errs.Extraction(ref, err))
				return nil
			}

			mu.Lock()
			probes = append(probes, roster_model.ImageBlob{Ref: ref, Data: data})
			mu.Unlock()

			return nil
		})
	}
	_ = g.Wait()

	return s.Reconcile(ctx, sessionKey, roster, probes)
}

// Submit queues a reconciliation for background execution and returns an
// immediate acknowledgment carrying only counts. Completion and errors are
// observable through the persisted marks and logs.
func (s *AttendanceService) Submit(sessionKey string, roster []string, imageRefs []string) roster_model.Ack {

	roster = dedupe(roster)

	s.runner.submit(job{
		sessionKey: sessionKey,
		roster:     roster,
		imageRefs:  imageRefs,
	})

	return roster_model.Ack{
		SessionKey: sessionKey,
		RosterSize: len(roster),
		ImageCount: len(imageRefs),
	}
}

// GetSessionMarks returns the current marks for a session.
func (s *AttendanceService) GetSessionMarks(sessionKey string) (marks []roster_model.AttendanceMark, err error) {

	marks, err = s.repo.Attendance.GetMarksBySession(sessionKey)
	if err != nil {
		return nil, errs.Store("get session marks", err)
	}

	return marks, nil
}

// Close drains the background runner.
func (s *AttendanceService) Close() {
	s.runner.close()
}

// dedupe removes duplicate and empty roster keys and returns them sorted.
func dedupe(roster []string) []string {
	seen := make(map[string]bool, len(roster))
	out := make([]string, 0, len(roster))
	for _, key := range roster {
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

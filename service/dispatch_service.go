package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Stage is one downstream processing service reached over HTTP.
type Stage struct {
	Name string
	URL  string
}

// DispatchJob carries everything a stage needs to pull and process one
// committed file. The signed read URL is the stage's only access to the
// bytes; its TTL must outlive the slowest stage.
type DispatchJob struct {
	FileID        uuid.UUID
	SignedReadURL string
	Filename      string
	MimeType      string
}

// stagePayload is the wire contract every stage receives.
type stagePayload struct {
	FileID      uuid.UUID `json:"file_id"`
	S3SignedURL string    `json:"s3_signed_url"`
	Filename    string    `json:"filename"`
	MimeType    string    `json:"mime_type"`
}

// DispatchService fans committed files out to the registered processing
// stages. Jobs go through an explicit one-way queue: the caller enqueues
// and returns, a worker posts to every stage in parallel. Stage failures
// are logged and contained; nothing is retried and nothing flows back to
// the caller. Stages report their outcome later through the processing
// callback endpoint.
type DispatchService struct {
	stages []Stage
	client *http.Client
	logger *zap.Logger

	jobs chan DispatchJob
	wg   sync.WaitGroup
}

// DispatchServiceOption is a functional option for DispatchService
type DispatchServiceOption func(*DispatchService)

// DispatchWithStages sets the downstream stages
func DispatchWithStages(stages []Stage) DispatchServiceOption {
	return func(s *DispatchService) {
		s.stages = stages
	}
}

// DispatchWithHTTPClient sets the HTTP client used for stage calls
func DispatchWithHTTPClient(client *http.Client) DispatchServiceOption {
	return func(s *DispatchService) {
		s.client = client
	}
}

// DispatchWithLogger sets the logger
func DispatchWithLogger(logger *zap.Logger) DispatchServiceOption {
	return func(s *DispatchService) {
		s.logger = logger
	}
}

// NewDispatchService creates a dispatch service and starts its worker.
func NewDispatchService(opts ...DispatchServiceOption) *DispatchService {
	s := &DispatchService{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: zap.NewNop(),
		jobs:   make(chan DispatchJob, 128),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.run()
	return s
}

// Enqueue hands a job to the dispatcher without waiting for any stage. A
// full queue drops the job rather than stall an upload commit; the drop is
// logged so the file can be re-triggered by hand.
func (s *DispatchService) Enqueue(job DispatchJob) {
	select {
	case s.jobs <- job:
	default:
		s.logger.Error("dispatch queue full, dropping job",
			zap.String("file_id", job.FileID.String()))
	}
}

// Close stops accepting jobs and waits for in-flight dispatches to finish.
func (s *DispatchService) Close() {
	close(s.jobs)
	s.wg.Wait()
}

func (s *DispatchService) run() {
	defer s.wg.Done()
	for job := range s.jobs {
		s.fanOut(job)
	}
}

// fanOut posts the job to every stage in parallel. No ordering exists
// between stages and one stage's failure never touches another.
func (s *DispatchService) fanOut(job DispatchJob) {
	var wg sync.WaitGroup
	for _, stage := range s.stages {
		wg.Add(1)
		go func(stage Stage) {
			defer wg.Done()
			if err := s.callStage(stage, job); err != nil {
				s.logger.Warn("processing stage unavailable",
					zap.String("stage", stage.Name),
					zap.String("file_id", job.FileID.String()),
					zap.Error(err))
			}
		}(stage)
	}
	wg.Wait()
}

func (s *DispatchService) callStage(stage Stage, job DispatchJob) error {
	payload, err := json.Marshal(stagePayload{
		FileID:      job.FileID,
		S3SignedURL: job.SignedReadURL,
		Filename:    job.Filename,
		MimeType:    job.MimeType,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, stage.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("stage %s returned %d", stage.Name, resp.StatusCode)
	}
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"kintu/internal/digest"
	"kintu/internal/ncbi"
)

// VerifyJob tracks one re-verification of a plant's digest against NCBI.
// States: queued, running, verified, mismatch, error.
type VerifyJob struct {
	ID        string    `json:"id"`
	PlantKey  string    `json:"plant_key"`
	Accession string    `json:"accession"`
	State     string    `json:"state"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	jobsMu   sync.Mutex
	jobs     []VerifyJob
	jobsPath string
)

// saveJobs persists jobs to path as indented JSON.
func saveJobs(path string, list []VerifyJob) error {
	b, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// loadJobs reads a jobs file previously written by saveJobs. A missing file
// is an empty job list, not an error.
func loadJobs(path string) ([]VerifyJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var list []VerifyJob
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func enqueueJob(plantKey, accession, wantDigest string) VerifyJob {
	jobsMu.Lock()
	job := VerifyJob{
		ID:        fmt.Sprintf("%s-%d", plantKey, time.Now().UnixNano()),
		PlantKey:  plantKey,
		Accession: accession,
		State:     "queued",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	jobs = append(jobs, job)
	snapshot := append([]VerifyJob(nil), jobs...)
	jobsMu.Unlock()

	if jobsPath != "" {
		if err := saveJobs(jobsPath, snapshot); err != nil {
			logPrintf("warning: failed to persist jobs: %v", err)
		}
	}
	go runJob(job.ID, accession, wantDigest)
	return job
}

func updateJob(id, state, detail string) {
	jobsMu.Lock()
	for i := range jobs {
		if jobs[i].ID == id {
			jobs[i].State = state
			jobs[i].Detail = detail
			jobs[i].UpdatedAt = time.Now().UTC()
			break
		}
	}
	snapshot := append([]VerifyJob(nil), jobs...)
	jobsMu.Unlock()
	if jobsPath != "" {
		if err := saveJobs(jobsPath, snapshot); err != nil {
			logPrintf("warning: failed to persist jobs: %v", err)
		}
	}
}

func listJobs() []VerifyJob {
	jobsMu.Lock()
	defer jobsMu.Unlock()
	return append([]VerifyJob(nil), jobs...)
}

// runJob fetches the accession from NCBI, recomputes the digest and records
// the outcome.
func runJob(id, accession, wantDigest string) {
	updateJob(id, "running", "")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	rec, err := ncbi.FetchSequence(ctx, accession)
	if err != nil {
		updateJob(id, "error", err.Error())
		return
	}
	got := digest.Sequence(rec.Sequence)
	if got == wantDigest {
		updateJob(id, "verified", "")
		return
	}
	updateJob(id, "mismatch", fmt.Sprintf("ncbi digest %s != document digest %s", got, wantDigest))
}

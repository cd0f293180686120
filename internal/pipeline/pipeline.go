package pipeline

// Package pipeline runs the full genesis computation: for every plant in the
// registry read its FASTA file, hash the raw sequence and pack it to two
// bits per base, then fold the digests (in registry order) into a Merkle
// root and assemble the output document. Per-plant work is independent, so
// it fans out over a small worker pool and fans back in before the Merkle
// barrier; a single worker gives byte-identical output.

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"kintu/internal/digest"
	"kintu/internal/fasta"
	"kintu/internal/genesis"
	"kintu/internal/merkle"
	"kintu/internal/registry"
	"kintu/internal/twobit"

	"github.com/charmbracelet/log"
)

// Options control a single run. Zero values mean: data files relative to the
// working directory, sequential processing, coerce unknown symbols with a
// warning, abort on the first failed plant, default document timestamp.
type Options struct {
	DataDir    string
	Workers    int
	Strict     bool
	SkipFailed bool
	Timestamp  string
}

// ProcessPlant runs the per-record chain for one plant: read, digest,
// encode. The returned result carries the error instead of dropping the
// plant so the assembler can mark it.
func ProcessPlant(dataDir string, plant registry.Plant, strict bool) genesis.Result {
	res := genesis.Result{Plant: plant}
	rec, err := fasta.ReadFile(filepath.Join(dataDir, plant.File))
	if err != nil {
		res.Err = err
		return res
	}
	res.FastaHeader = rec.Header
	res.SequenceLen = len(rec.Sequence)
	res.Digest = digest.Sequence(rec.Sequence)
	if strict {
		p, err := twobit.EncodeStrict(rec.Sequence)
		if err != nil {
			res.Err = fmt.Errorf("%s: %w", plant.Key, err)
			res.Digest = ""
			return res
		}
		res.Payload = p
	} else {
		res.Payload = twobit.Encode(rec.Sequence)
	}
	return res
}

// Run processes every plant and assembles the genesis document. The slice of
// results is returned alongside the document so callers can report per-plant
// detail. With SkipFailed unset, any failed plant aborts the run.
func Run(reg registry.Registry, opts Options, logger *log.Logger) (genesis.Document, []genesis.Result, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if err := reg.Validate(); err != nil {
		return genesis.Document{}, nil, fmt.Errorf("pipeline: %w", err)
	}

	results := make([]genesis.Result, len(reg))
	workers := opts.Workers
	if workers <= 1 {
		for i, p := range reg {
			results[i] = ProcessPlant(opts.DataDir, p, opts.Strict)
		}
	} else {
		if workers > len(reg) {
			workers = len(reg)
		}
		tasks := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range tasks {
					// each worker owns a distinct index, no locking
					results[i] = ProcessPlant(opts.DataDir, reg[i], opts.Strict)
				}
			}()
		}
		for i := range reg {
			tasks <- i
		}
		close(tasks)
		wg.Wait()
	}

	var hashes []string
	for _, res := range results {
		if res.Err != nil {
			if !opts.SkipFailed {
				return genesis.Document{}, results, fmt.Errorf("pipeline: plant %s: %w", res.Plant.Key, res.Err)
			}
			logger.Warn("plant failed, marking absent", "plant", res.Plant.Key, "err", res.Err)
			continue
		}
		if res.Payload.Unknown > 0 {
			logger.Warn("unknown symbols coerced to A/N code", "plant", res.Plant.Key, "count", res.Payload.Unknown)
		}
		logger.Info("processed plant",
			"plant", res.Plant.Key,
			"bp", res.SequenceLen,
			"sha256", res.Digest[:16]+"...",
			"compressed_bytes", res.Payload.SizeBytes)
		hashes = append(hashes, res.Digest)
	}

	root, err := merkle.Root(hashes)
	if err != nil {
		return genesis.Document{}, results, fmt.Errorf("pipeline: %w", err)
	}
	logger.Info("merkle root computed", "root", root[:32]+"...", "leaves", len(hashes))

	doc, err := genesis.Build(opts.Timestamp, results, root)
	if err != nil {
		return genesis.Document{}, results, fmt.Errorf("pipeline: %w", err)
	}
	return doc, results, nil
}

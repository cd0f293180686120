package genesis

// Package genesis assembles the terminal document of the pipeline: one entry
// per plant merging registry metadata with the sequence-derived digest and
// packed payload, the Merkle root over all digests, and a verification block
// telling an outside party how to recompute everything. Assembly is pure
// aggregation; all hashing happens upstream.

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"kintu/internal/registry"
	"kintu/internal/twobit"
)

const (
	// DefaultTimestamp keeps re-runs byte-identical. The document records
	// when the data set was frozen, not when the binary ran.
	DefaultTimestamp = "2025-10-29T00:00:00Z"

	Version     = "1.0.0"
	Methodology = "SHA-256 + Merkle Tree + NCBI Verification"

	ncbiDatabaseURL = "https://www.ncbi.nlm.nih.gov/nucleotide/"
)

// Result carries everything the pipeline derived for one plant. Err marks a
// plant whose processing failed; such a plant contributes no digest and is
// listed under the document's failed map instead of plants.
type Result struct {
	Plant       registry.Plant
	FastaHeader string
	SequenceLen int
	Digest      string
	Payload     twobit.Payload
	Err         error
}

// PlantEntry is one verified plant in the output document.
type PlantEntry struct {
	NameIndigenous          string  `json:"name_indigenous"`
	NameSpiritual           string  `json:"name_spiritual"`
	NameScientific          string  `json:"name_scientific"`
	Gene                    string  `json:"gene"`
	Accession               string  `json:"ncbi_accession"`
	VerificationURL         string  `json:"ncbi_verification_url"`
	SequenceLengthBP        int     `json:"sequence_length_bp"`
	SHA256Hash              string  `json:"sha256_hash"`
	CompressedHex           string  `json:"compressed_hex"`
	CompressedSizeBytes     int     `json:"compressed_size_bytes"`
	CompressionRatioPercent float64 `json:"compression_ratio_percent"`
	CulturalMeaning         string  `json:"cultural_meaning"`
	Etymology               string  `json:"etymology"`
	FastaHeader             string  `json:"fasta_header"`
}

// Verification tells a third party how to check the document without
// trusting this code.
type Verification struct {
	Method       string `json:"method"`
	Instructions string `json:"instructions"`
	NCBIDatabase string `json:"ncbi_database"`
	Script       string `json:"verification_script"`
}

// CulturalHeritage is the free-text heritage block carried alongside the
// scientific data.
type CulturalHeritage struct {
	Tradition    string   `json:"tradition"`
	Languages    []string `json:"languages"`
	Significance string   `json:"significance"`
	Declaration  string   `json:"declaration"`
}

// Kintu is the document body.
type Kintu struct {
	Description      string                `json:"description"`
	Version          string                `json:"version"`
	Methodology      string                `json:"methodology"`
	Timestamp        string                `json:"timestamp"`
	MerkleRoot       string                `json:"merkle_root"`
	Plants           map[string]PlantEntry `json:"plants"`
	Failed           map[string]string     `json:"failed,omitempty"`
	Verification     Verification          `json:"verification"`
	CulturalHeritage CulturalHeritage      `json:"cultural_heritage"`
}

// Document is the top-level genesis artifact.
type Document struct {
	Kintu Kintu `json:"kintu"`
}

// Ratio is the compression ratio in percent, rounded to two decimals:
// (bp - bytes) / bp * 100. Zero for an empty sequence.
func Ratio(sequenceLenBP, compressedBytes int) float64 {
	if sequenceLenBP == 0 {
		return 0
	}
	r := float64(sequenceLenBP-compressedBytes) / float64(sequenceLenBP) * 100
	return math.Round(r*100) / 100
}

// Build assembles the document from per-plant results (in registry order)
// and the precomputed Merkle root. Every result must either carry a digest
// or an error; failed plants are recorded explicitly so a reader can tell a
// partial document from a complete one.
func Build(timestamp string, results []Result, root string) (Document, error) {
	if timestamp == "" {
		timestamp = DefaultTimestamp
	}
	plants := make(map[string]PlantEntry, len(results))
	var failed map[string]string
	for _, res := range results {
		key := res.Plant.Key
		if res.Err != nil {
			if failed == nil {
				failed = make(map[string]string)
			}
			failed[key] = res.Err.Error()
			continue
		}
		if res.Digest == "" {
			return Document{}, fmt.Errorf("genesis: plant %q has neither digest nor error", key)
		}
		plants[key] = PlantEntry{
			NameIndigenous:          res.Plant.NameIndigenous,
			NameSpiritual:           res.Plant.NameSpiritual,
			NameScientific:          res.Plant.NameScientific,
			Gene:                    res.Plant.Gene,
			Accession:               res.Plant.Accession,
			VerificationURL:         ncbiDatabaseURL + res.Plant.Accession,
			SequenceLengthBP:        res.SequenceLen,
			SHA256Hash:              res.Digest,
			CompressedHex:           res.Payload.Hex,
			CompressedSizeBytes:     res.Payload.SizeBytes,
			CompressionRatioPercent: Ratio(res.SequenceLen, res.Payload.SizeBytes),
			CulturalMeaning:         res.Plant.CulturalMeaning,
			Etymology:               res.Plant.Etymology,
			FastaHeader:             res.FastaHeader,
		}
	}
	if len(plants) == 0 {
		return Document{}, fmt.Errorf("genesis: no plant processed successfully")
	}
	return Document{Kintu: Kintu{
		Description: "Plantas Sagradas K'intu - Conocimiento Ancestral Verificable",
		Version:     Version,
		Methodology: Methodology,
		Timestamp:   timestamp,
		MerkleRoot:  root,
		Plants:      plants,
		Failed:      failed,
		Verification: Verification{
			Method:       "NCBI GenBank Cross-Reference",
			Instructions: "Download sequences from NCBI using accession numbers, calculate SHA-256, compare with on-chain hashes",
			NCBIDatabase: ncbiDatabaseURL,
			Script:       "verify_kintu.sh",
		},
		CulturalHeritage: CulturalHeritage{
			Tradition:    "K'intu - Triada Sagrada de los Pueblos Originarios",
			Languages:    []string{"Quechua", "Aymara", "Cofán"},
			Significance: "Preservación del conocimiento ancestral con verificación científica",
			Declaration:  "Conocimiento preservado en las lenguas originarias de los pueblos que la conocen desde hace milenios",
		},
	}}, nil
}

// Encode writes the document as indented JSON. Output is deterministic for
// a given document: map keys are emitted sorted and the timestamp is fixed
// at build time, so re-running the pipeline on unchanged inputs reproduces
// the file byte for byte.
func Encode(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Decode reads a document previously written by Encode.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("genesis: decode: %w", err)
	}
	return doc, nil
}

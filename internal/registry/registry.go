package registry

// Package registry defines the static set of records the pipeline processes.
// A Registry is constructed once at startup (built-in default or a JSON
// file) and passed into the pipeline; nothing mutates it afterwards. Order
// matters: Merkle aggregation always consumes digests in registry order.

import (
	"encoding/json"
	"fmt"
	"os"
)

// Plant describes one sacred-plant record: identity, display names, the
// FASTA file carrying its sequence, the external accession used for
// independent verification, and free-text cultural metadata.
type Plant struct {
	Key             string `json:"key"`
	NameIndigenous  string `json:"name_indigenous"`
	NameSpiritual   string `json:"name_spiritual"`
	NameScientific  string `json:"name_scientific"`
	File            string `json:"file"`
	Accession       string `json:"ncbi_accession"`
	Gene            string `json:"gene"`
	CulturalMeaning string `json:"cultural_meaning"`
	Etymology       string `json:"etymology"`
}

// Registry is an ordered list of plants. A slice rather than a map so the
// processing (and Merkle) order survives JSON round-trips.
type Registry []Plant

// Default returns the built-in K'intu triad.
func Default() Registry {
	return Registry{
		{
			Key:             "kuka",
			NameIndigenous:  "Kuka",
			NameSpiritual:   "Mamacoca",
			NameScientific:  "Erythroxylum novogranatense",
			File:            "kuka_erythroxylum_chloroplast_NC030601.fasta",
			Accession:       "NC_030601.1",
			Gene:            "chloroplast_genome",
			CulturalMeaning: "La raíz, la tierra, el nodo estable de la triada K'intu. Representa la conexión con Mama Pachamama.",
			Etymology:       "Del quechua 'kuka' y aymara 'kkoka' - planta sagrada ancestral",
		},
		{
			Key:             "yage",
			NameIndigenous:  "Yagé",
			NameSpiritual:   "Ayahuasca",
			NameScientific:  "Banisteriopsis caapi",
			File:            "yage_banisteriopsis_caapi_matK_CORRECTED.fasta",
			Accession:       "HQ247200.1",
			Gene:            "chloroplast_matK",
			CulturalMeaning: "La liana, el espíritu. 'La soga de los espíritus' que permite la visión sagrada.",
			Etymology:       "Del cofán 'yagé' y quechua 'aya' (espíritu) + 'waska' (soga)",
		},
		{
			Key:             "chacruna",
			NameIndigenous:  "Chacruna",
			NameSpiritual:   "Chaqruy",
			NameScientific:  "Psychotria viridis",
			File:            "chacruna_psychotria_viridis_rbcL_CORRECTED.fasta",
			Accession:       "LC651165.1",
			Gene:            "chloroplast_rbcL",
			CulturalMeaning: "La visión, la mezcla, el catalizador del conocimiento. Sin ella, la liana está muda.",
			Etymology:       "Del quechua 'chaqruy' (mezclar) - la hoja de la visión",
		},
	}
}

// Load reads a registry from a JSON file (an array of plants in processing
// order) and validates it.
func Load(path string) (Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("registry: parse %s: %w", path, err)
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("registry: %s: %w", path, err)
	}
	return reg, nil
}

// Validate checks that the registry is non-empty and every plant carries a
// key, a source file and an accession, with no duplicate keys.
func (r Registry) Validate() error {
	if len(r) == 0 {
		return fmt.Errorf("no plants defined")
	}
	seen := make(map[string]bool, len(r))
	for i, p := range r {
		if p.Key == "" {
			return fmt.Errorf("plant %d: empty key", i)
		}
		if seen[p.Key] {
			return fmt.Errorf("plant %q: duplicate key", p.Key)
		}
		seen[p.Key] = true
		if p.File == "" {
			return fmt.Errorf("plant %q: no sequence file", p.Key)
		}
		if p.Accession == "" {
			return fmt.Errorf("plant %q: no accession", p.Key)
		}
	}
	return nil
}

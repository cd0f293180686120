package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"kintu/internal/config"
	"kintu/internal/digest"
	"kintu/internal/genesis"
	"kintu/internal/ncbi"
	"kintu/internal/pipeline"
	"kintu/internal/registry"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// version is the program version. It can be overridden at build time with -ldflags "-X main.version=..."
var version = "1.0.0"

// timestampWriter prefixes each flushed line with an RFC3339 timestamp.
type timestampWriter struct {
	w   io.Writer
	buf bytes.Buffer
	mu  sync.Mutex
}

// Write buffers bytes until a newline is found; for each full line, write a timestamped
// line to the underlying writer. Partial lines are kept in the buffer.
func (t *timestampWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, _ := t.buf.Write(p)
	total := n
	for {
		line, err := t.buf.ReadString('\n')
		if err != nil {
			break
		}
		ts := time.Now().Format(time.RFC3339)
		if _, err := t.w.Write([]byte(ts + " " + line)); err != nil {
			return total, err
		}
	}
	return total, nil
}

// terminalWriter wraps an io.Writer and exposes an Fd method so libraries that
// inspect the file descriptor (for TTY detection) can work with wrapped writers.
type terminalWriter struct {
	w  io.Writer
	fd uintptr
}

func (tw *terminalWriter) Write(p []byte) (int, error) { return tw.w.Write(p) }

// Fd exposes the underlying file descriptor (e.g., os.Stderr.Fd()).
func (tw *terminalWriter) Fd() uintptr { return tw.fd }

// summary styles
var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
)

func main() {
	dataFlag := flag.String("data", ".", "directory containing the registry's FASTA files")
	registryFlag := flag.String("registry", "", "path to a registry JSON file (default: built-in K'intu triad)")
	outputFlag := flag.String("out", "kintu_genesis_data.json", "output genesis JSON file path")
	configFlag := flag.String("config", "", "path to config.json (optional)")
	workersFlag := flag.Int("workers", 0, "parallel plant workers (<=1 runs sequentially)")
	strictFlag := flag.Bool("strict", false, "reject sequences containing symbols outside {A,C,G,T,N}")
	skipFailedFlag := flag.Bool("skip-failed", false, "mark failed plants in the document instead of aborting")
	verifyFlag := flag.Bool("verify", false, "re-verify an existing genesis document against NCBI")
	dryRun := flag.Bool("dry-run", false, "perform a dry run without writing outputs")
	verbose := flag.Bool("verbose", false, "enable verbose (debug) logging")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("kintu", version)
		return
	}

	// load config (optional file); flags override config when provided
	cfg, err := config.LoadConfig(*configFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid config:", err)
		os.Exit(1)
	}
	if *dataFlag != "" {
		cfg.DataDir = *dataFlag
	}
	if *registryFlag != "" {
		cfg.RegistryPath = *registryFlag
	}
	if *outputFlag != "" {
		cfg.OutputJSON = *outputFlag
	}
	if *workersFlag > 0 {
		cfg.Workers = *workersFlag
	}
	if *strictFlag {
		cfg.Strict = true
	}
	if *skipFailedFlag {
		cfg.SkipFailed = true
	}

	// configure logger output
	var loggerOut io.Writer = os.Stderr
	if cfg.LogFile != "" {
		if f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			// write to both stderr and file so running interactively still shows logs
			loggerOut = io.MultiWriter(os.Stderr, f)
			defer func() { _ = f.Close() }()
		}
	}
	if fi, err := os.Stderr.Stat(); err == nil {
		if fi.Mode()&os.ModeCharDevice != 0 {
			_ = os.Setenv("FORCE_COLOR", "1")
		}
	}
	tw := &timestampWriter{w: loggerOut}
	termW := &terminalWriter{w: tw, fd: os.Stderr.Fd()}
	logger := log.New(termW)

	if *verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		switch strings.ToLower(cfg.LogLevel) {
		case "debug":
			logger.SetLevel(log.DebugLevel)
		case "info", "":
			logger.SetLevel(log.InfoLevel)
		case "warn", "warning":
			logger.SetLevel(log.WarnLevel)
		case "error":
			logger.SetLevel(log.ErrorLevel)
		default:
			logger.SetLevel(log.InfoLevel)
			logger.Warn("unknown log_level in config.json, defaulting to info", "provided", cfg.LogLevel)
		}
	}

	logger.Debug("loaded config", "data_dir", cfg.DataDir, "registry_path", cfg.RegistryPath, "output_json", cfg.OutputJSON, "workers", cfg.Workers, "strict", cfg.Strict, "skip_failed", cfg.SkipFailed)

	// apply ncbi config (verify mode only touches the network)
	if cfg.NcbiCachePath != "" {
		if absPath, aerr := filepath.Abs(cfg.NcbiCachePath); aerr == nil {
			ncbi.SetCacheFilePath(absPath)
		} else {
			ncbi.SetCacheFilePath(cfg.NcbiCachePath)
		}
		defer ncbi.FlushCache()
	}
	if cfg.NcbiApiKey != "" {
		os.Setenv("NCBI_API_KEY", cfg.NcbiApiKey)
		logger.Info("ncbi api key set from config.json (value not logged)")
	}
	if cfg.NcbiCacheTTLSecs > 0 {
		ncbi.SetCacheTTLSeconds(cfg.NcbiCacheTTLSecs)
	}

	if *verifyFlag {
		if err := runVerify(logger, cfg.OutputJSON); err != nil {
			logger.Fatal("verification failed", "err", err)
		}
		return
	}

	reg := registry.Default()
	if cfg.RegistryPath != "" {
		reg, err = registry.Load(cfg.RegistryPath)
		if err != nil {
			logger.Fatal("failed to load registry", "path", cfg.RegistryPath, "err", err)
		}
	}
	logger.Info("starting kintu genesis pipeline", "plants", len(reg), "data_dir", cfg.DataDir, "workers", cfg.Workers)

	doc, results, err := pipeline.Run(reg, pipeline.Options{
		DataDir:    cfg.DataDir,
		Workers:    cfg.Workers,
		Strict:     cfg.Strict,
		SkipFailed: cfg.SkipFailed,
		Timestamp:  cfg.Timestamp,
	}, logger)
	if err != nil {
		logger.Fatal("pipeline failed", "err", err)
	}

	if *dryRun {
		logger.Info("dry-run: would write genesis document", "path", cfg.OutputJSON, "plants", len(doc.Kintu.Plants))
	} else {
		var buf bytes.Buffer
		if err := genesis.Encode(&buf, doc); err != nil {
			logger.Fatal("encode failed", "err", err)
		}
		if err := os.WriteFile(cfg.OutputJSON, buf.Bytes(), 0o644); err != nil {
			logger.Fatal("failed to write genesis document", "path", cfg.OutputJSON, "err", err)
		}
		logger.Info("wrote genesis document", "path", cfg.OutputJSON, "plants", len(doc.Kintu.Plants))
	}

	printSummary(doc, results)
}

// printSummary renders a short human-readable recap after a successful run.
func printSummary(doc genesis.Document, results []genesis.Result) {
	fmt.Println(titleStyle.Render("K'intu genesis document"))
	totalBP := 0
	for _, res := range results {
		if res.Err != nil {
			fmt.Printf("  %s %s\n", badStyle.Render("✗ "+res.Plant.Key), dimStyle.Render(res.Err.Error()))
			continue
		}
		totalBP += res.SequenceLen
		fmt.Printf("  %s %s %s\n",
			okStyle.Render("✓ "+res.Plant.Key),
			fmt.Sprintf("%d bp → %d bytes (%.2f%%)", res.SequenceLen, res.Payload.SizeBytes, genesis.Ratio(res.SequenceLen, res.Payload.SizeBytes)),
			dimStyle.Render(res.Digest[:16]+"..."))
	}
	fmt.Printf("  %s %s\n", keyStyle.Render("merkle root"), doc.Kintu.MerkleRoot)
	fmt.Printf("  %s %d bp across %d plants\n", keyStyle.Render("total"), totalBP, len(doc.Kintu.Plants))
}

// runVerify re-downloads every plant's sequence from NCBI, recomputes the
// SHA-256 and compares it with the digests recorded in the document at path.
func runVerify(logger *log.Logger, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open genesis document: %w", err)
	}
	doc, err := genesis.Decode(f)
	f.Close()
	if err != nil {
		return err
	}
	if len(doc.Kintu.Plants) == 0 {
		return fmt.Errorf("document %s has no plants", path)
	}
	logger.Info("verifying genesis document against NCBI", "path", path, "plants", len(doc.Kintu.Plants))

	type item struct {
		key   string
		entry genesis.PlantEntry
	}
	type outcome struct {
		key string
		ok  bool
		err error
	}

	items := make([]item, 0, len(doc.Kintu.Plants))
	for k, e := range doc.Kintu.Plants {
		items = append(items, item{key: k, entry: e})
	}

	// NCBI allows ~3 requests/sec without an API key; pace the pool
	ticker := time.NewTicker(time.Second / 3)
	defer ticker.Stop()

	tasks := make(chan item)
	outcomes := make(chan outcome)
	var wg sync.WaitGroup
	for w := 0; w < 3; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for it := range tasks {
				<-ticker.C
				ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
				rec, err := ncbi.FetchSequence(ctx, it.entry.Accession)
				cancel()
				if err != nil {
					outcomes <- outcome{key: it.key, err: err}
					continue
				}
				got := digest.Sequence(rec.Sequence)
				outcomes <- outcome{key: it.key, ok: got == it.entry.SHA256Hash}
			}
		}()
	}
	go func() {
		for _, it := range items {
			tasks <- it
		}
		close(tasks)
	}()
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	mismatches := 0
	for oc := range outcomes {
		switch {
		case oc.err != nil:
			mismatches++
			logger.Error("fetch failed", "plant", oc.key, "err", oc.err)
			fmt.Printf("  %s %s\n", badStyle.Render("? "+oc.key), dimStyle.Render(oc.err.Error()))
		case oc.ok:
			logger.Info("digest verified", "plant", oc.key)
			fmt.Printf("  %s\n", okStyle.Render("✓ "+oc.key+" matches NCBI"))
		default:
			mismatches++
			logger.Error("digest mismatch", "plant", oc.key)
			fmt.Printf("  %s\n", badStyle.Render("✗ "+oc.key+" DOES NOT match NCBI"))
		}
	}
	if mismatches > 0 {
		return fmt.Errorf("%d of %d plants failed verification", mismatches, len(items))
	}
	fmt.Println(okStyle.Render("all plants verified against NCBI"))
	return nil
}

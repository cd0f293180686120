package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"kintu/internal/genesis"
)

// PlantView is one plant row for the templates, with the map key attached.
type PlantView struct {
	Key string
	genesis.PlantEntry
}

// PlantsPage is used to render the base page and to carry query state
type PlantsPage struct {
	Plants     []PlantView
	MerkleRoot string
	Query      string
	Sort       string
}

var templates *template.Template

var accessLog *log.Logger

func logPrintf(format string, args ...any) {
	if accessLog != nil {
		accessLog.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func loadTemplates(dir string) error {
	t := template.New("")
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".html") {
			if _, err := t.ParseFiles(path); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	templates = t
	return nil
}

// statusResponseWriter captures status and bytes written for logging
type statusResponseWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// loggingMiddleware logs each request with method, path, status, size and duration
func loggingMiddleware(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w}
		next.ServeHTTP(srw, r)
		if srw.status == 0 {
			srw.status = http.StatusOK
		}
		duration := time.Since(start)
		logger.Printf("%s - %s %s %d %dB %s %q",
			r.RemoteAddr, r.Method, r.URL.RequestURI(), srw.status, srw.written, duration, r.UserAgent())
	})
}

// readDocument reads and decodes the genesis JSON at path.
func readDocument(path string) (genesis.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return genesis.Document{}, err
	}
	defer f.Close()
	return genesis.Decode(f)
}

func plantViews(doc genesis.Document) []PlantView {
	views := make([]PlantView, 0, len(doc.Kintu.Plants))
	for k, e := range doc.Kintu.Plants {
		views = append(views, PlantView{Key: k, PlantEntry: e})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Key < views[j].Key })
	return views
}

func indexHandler(docPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := readDocument(docPath)
		if err != nil {
			logPrintf("warning: failed to read genesis document for index: %v", err)
		}
		page := PlantsPage{
			Plants:     plantViews(doc),
			MerkleRoot: doc.Kintu.MerkleRoot,
			Query:      r.URL.Query().Get("q"),
			Sort:       r.URL.Query().Get("sort"),
		}
		if err := templates.ExecuteTemplate(w, "base.html", page); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func plantsHandler(docPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := readDocument(docPath)
		if err != nil {
			http.Error(w, "failed to read genesis document", http.StatusInternalServerError)
			return
		}
		views := plantViews(doc)
		q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
		sortMode := r.URL.Query().Get("sort")

		// filter
		filtered := make([]PlantView, 0, len(views))
		for _, v := range views {
			if q == "" ||
				strings.Contains(strings.ToLower(v.Key), q) ||
				strings.Contains(strings.ToLower(v.NameScientific), q) ||
				strings.Contains(strings.ToLower(v.Accession), q) {
				filtered = append(filtered, v)
			}
		}

		// sort
		switch sortMode {
		case "bp":
			sort.Slice(filtered, func(i, j int) bool { return filtered[i].SequenceLengthBP > filtered[j].SequenceLengthBP })
		case "ratio":
			sort.Slice(filtered, func(i, j int) bool { return filtered[i].CompressionRatioPercent > filtered[j].CompressionRatioPercent })
		case "name":
			sort.Slice(filtered, func(i, j int) bool {
				return strings.ToLower(filtered[i].NameScientific) < strings.ToLower(filtered[j].NameScientific)
			})
		}

		if err := templates.ExecuteTemplate(w, "plants.html", filtered); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func plantHandler(docPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		if len(parts) < 3 || parts[2] == "" {
			http.Error(w, "missing plant", http.StatusBadRequest)
			return
		}
		key := parts[2]
		doc, err := readDocument(docPath)
		if err != nil {
			http.Error(w, "failed to read genesis document", http.StatusInternalServerError)
			return
		}
		entry, ok := doc.Kintu.Plants[key]
		if !ok {
			http.Error(w, "plant not found", http.StatusNotFound)
			return
		}
		view := PlantView{Key: key, PlantEntry: entry}
		if r.Header.Get("HX-Request") == "true" || r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
			if err := templates.ExecuteTemplate(w, "detail.html", view); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		if err := templates.ExecuteTemplate(w, "plant_page.html", view); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// verifySubmitHandler queues a background NCBI re-verification for a plant.
func verifySubmitHandler(docPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		if len(parts) < 4 || parts[3] == "" {
			http.Error(w, "missing plant", http.StatusBadRequest)
			return
		}
		key := parts[3]
		doc, err := readDocument(docPath)
		if err != nil {
			http.Error(w, "failed to read genesis document", http.StatusInternalServerError)
			return
		}
		entry, ok := doc.Kintu.Plants[key]
		if !ok {
			http.Error(w, "plant not found", http.StatusNotFound)
			return
		}
		job := enqueueJob(key, entry.Accession, entry.SHA256Hash)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": job.ID, "state": job.State})
	}
}

// verifyJobsHandler shows the verification job table.
func verifyJobsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := templates.ExecuteTemplate(w, "verify_jobs.html", listJobs()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// apiPlantHandler returns JSON for a single plant entry
func apiPlantHandler(docPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		if len(parts) < 4 || parts[3] == "" {
			http.Error(w, "missing plant", http.StatusBadRequest)
			return
		}
		key := parts[3]
		doc, err := readDocument(docPath)
		if err != nil {
			http.Error(w, "failed to read genesis document", http.StatusInternalServerError)
			return
		}
		if entry, ok := doc.Kintu.Plants[key]; ok {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			_ = json.NewEncoder(w).Encode(entry)
			return
		}
		http.Error(w, "plant not found", http.StatusNotFound)
	}
}

// apiMerkleHandler returns the document's merkle root and verification block.
func apiMerkleHandler(docPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := readDocument(docPath)
		if err != nil {
			http.Error(w, "failed to read genesis document", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"merkle_root":  doc.Kintu.MerkleRoot,
			"verification": doc.Kintu.Verification,
		})
	}
}

// apiJobsHandler returns the JSON list of verification jobs
func apiJobsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(listJobs())
	}
}

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	docPath := flag.String("doc", "kintu_genesis_data.json", "path to the genesis JSON document")
	templatesDir := flag.String("templates", "web/templates", "HTML templates directory")
	jobsFile := flag.String("jobs", "verify_jobs.json", "path to the verification jobs file")
	logFile := flag.String("log", "", "path to write access logs (optional). If empty, logs go to stdout only")
	flag.Parse()

	if err := loadTemplates(*templatesDir); err != nil {
		log.Fatalf("failed to load templates: %v", err)
	}

	jobsPath = *jobsFile
	if restored, err := loadJobs(jobsPath); err != nil {
		log.Printf("warning: failed to load jobs file: %v", err)
	} else {
		jobs = restored
	}

	mux := http.NewServeMux()
	fs := http.FileServer(http.Dir("web/static"))
	mux.Handle("/static/", http.StripPrefix("/static/", fs))
	mux.HandleFunc("/", indexHandler(*docPath))
	mux.HandleFunc("/plants", plantsHandler(*docPath))
	mux.HandleFunc("/plant/", plantHandler(*docPath))
	mux.HandleFunc("/verify/submit/", verifySubmitHandler(*docPath))
	mux.HandleFunc("/verify-jobs", verifyJobsHandler())
	// API endpoints for SPA-like interactions
	mux.HandleFunc("/api/plant/", apiPlantHandler(*docPath))
	mux.HandleFunc("/api/merkle", apiMerkleHandler(*docPath))
	mux.HandleFunc("/api/jobs", apiJobsHandler())

	var out io.Writer = os.Stdout
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatalf("failed to open log file: %v", err)
		}
		out = io.MultiWriter(os.Stdout, f)
	}
	accessLog = log.New(out, "kintu: ", log.LstdFlags)

	handler := loggingMiddleware(accessLog, mux)

	srv := &http.Server{Addr: *addr, Handler: handler, ReadTimeout: 5 * time.Second, WriteTimeout: 10 * time.Second}
	fmt.Printf("serving genesis viewer at http://%s/ (doc=%s)\n", *addr, *docPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve generated reports over HTTP",
	Long:  "Exposes the report output directory for local viewing: GET /health, GET /reports, GET /reports/{name}.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mux := buildMux(cfg.Report.OutputDir)
		return startServer(ctx, mux, resolvePort(servePort, cfg.Server.Port))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// resolvePort prefers the flag over the configured port.
func resolvePort(flag, configured int) int {
	if flag != 0 {
		return flag
	}
	return configured
}

// reportEntry is one row of the GET /reports listing.
type reportEntry struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// buildMux wires the report-serving routes over the output directory.
func buildMux(dir string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /reports", func(w http.ResponseWriter, r *http.Request) {
		entries, err := listReports(dir)
		if err != nil {
			zap.L().Error("serve: list reports", zap.Error(err))
			http.Error(w, `{"error":"cannot read output directory"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(entries)
	})

	mux.HandleFunc("GET /reports/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		if !validReportName(name) {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, name))
	})

	return mux
}

// listReports returns the artifact files in dir, newest first. A missing
// directory lists as empty: no run has emitted yet.
func listReports(dir string) ([]reportEntry, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []reportEntry{}, nil
		}
		return nil, eris.Wrapf(err, "serve: read %s", dir)
	}

	entries := []reportEntry{}
	for _, de := range dirents {
		if de.IsDir() || !validReportName(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, reportEntry{Name: de.Name(), Size: info.Size(), Modified: info.ModTime()})
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Modified.Equal(entries[j].Modified) {
			return entries[i].Modified.After(entries[j].Modified)
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// validReportName admits only the artifact names the writer produces, which
// also keeps traversal paths out of the file handler.
func validReportName(name string) bool {
	if name != filepath.Base(name) || !strings.HasPrefix(name, "report_") {
		return false
	}
	return strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".html")
}

// startServer runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func startServer(ctx context.Context, mux *http.ServeMux, port int) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("serve: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("serve: listening", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "serve: listen")
	}
	return nil
}

package web

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/statstable/internal/csvtable"
	"github.com/JonMunkholm/statstable/internal/logging"
	"github.com/JonMunkholm/statstable/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// handlePage renders the full page. A failed load still renders the
// heading and an empty table; the error only goes to the log.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	data := s.loadTable(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Page(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}

// handleTable renders only the heading and table, for partial refresh.
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	data := s.loadTable(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.StatsTable(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render table", "error", err)
	}
}

// handleSnapshot returns the freshly loaded snapshot as JSON.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Load(r.Context())
	if err != nil {
		s.respondError(w, r, err, loadStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleCSVFile serves a CSV file from the public directory.
func (s *Server) handleCSVFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	path := filepath.Join(s.cfg.Server.PublicDir, filepath.Base(name))

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.respondError(w, r, err, http.StatusNotFound)
			return
		}
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		s.respondError(w, r, os.ErrNotExist, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, name, info.ModTime(), f)
}

type healthResponse struct {
	Status     string     `json:"status"`
	Source     string     `json:"source"`
	SnapshotID string     `json:"snapshot_id,omitempty"`
	FetchedAt  *time.Time `json:"fetched_at,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Source: s.service.Source().String()}
	if snap := s.service.Latest(); snap != nil {
		resp.SnapshotID = snap.ID.String()
		fetched := snap.FetchedAt
		resp.FetchedAt = &fetched
	}
	writeJSON(w, http.StatusOK, resp)
}

// loadTable loads a snapshot and converts it to the view model.
func (s *Server) loadTable(ctx context.Context) templates.TableData {
	snap, err := s.service.Load(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("snapshot load failed",
			"source", s.service.Source().String(),
			"error", err,
			"code", csvtable.MapError(err).Code,
		)
		snap = nil
	}
	return s.tableData(snap)
}

// tableData builds the view model; a nil snapshot yields an empty table.
func (s *Server) tableData(snap *csvtable.Snapshot) templates.TableData {
	data := templates.TableData{Heading: s.cfg.Display.Heading}
	if snap == nil {
		return data
	}

	data.Columns = snap.Columns
	data.Rows = make([]templates.RowData, len(snap.Rows))
	for i, row := range snap.Rows {
		class := s.cfg.Display.EvenClass
		if row.Odd() {
			class = s.cfg.Display.OddClass
		}
		data.Rows[i] = templates.RowData{Class: class, Cells: row.Values}
	}
	return data
}

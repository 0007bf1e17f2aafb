package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ahrav/scanbridge/internal/domain/ident"
)

// vocabEntry is one row of a vocabulary listing: the numeric identifier the
// protocol uses and the canonical spelling of its name.
type vocabEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// formatEntry extends vocabEntry with the short name after the MIME slash.
type formatEntry struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

func (s *Server) handleListProtocols(w http.ResponseWriter, r *http.Request) {
	protos := ident.Protos()
	entries := make([]vocabEntry, 0, len(protos))
	for _, p := range protos {
		entries = append(entries, vocabEntry{ID: int(p), Name: p.String()})
	}
	writeJSON(w, http.StatusOK, map[string][]vocabEntry{"protocols": entries})
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources := ident.Sources()
	entries := make([]vocabEntry, 0, len(sources))
	for _, src := range sources {
		entries = append(entries, vocabEntry{ID: int(src), Name: src.String()})
	}
	writeJSON(w, http.StatusOK, map[string][]vocabEntry{"sources": entries})
}

func (s *Server) handleListColorModes(w http.ResponseWriter, r *http.Request) {
	modes := ident.ColorModes()
	entries := make([]vocabEntry, 0, len(modes))
	for _, m := range modes {
		entries = append(entries, vocabEntry{ID: int(m), Name: m.String()})
	}
	writeJSON(w, http.StatusOK, map[string][]vocabEntry{"colormodes": entries})
}

func (s *Server) handleListFormats(w http.ResponseWriter, r *http.Request) {
	formats := ident.Formats()
	entries := make([]formatEntry, 0, len(formats))
	for _, f := range formats {
		entries = append(entries, formatEntry{
			ID:        int(f),
			Name:      f.MIMEName(),
			ShortName: f.ShortName(),
		})
	}
	writeJSON(w, http.StatusOK, map[string][]formatEntry{"formats": entries})
}

func (s *Server) handleListJustifications(w http.ResponseWriter, r *http.Request) {
	justifications := ident.Justifications()
	entries := make([]vocabEntry, 0, len(justifications))
	for _, j := range justifications {
		entries = append(entries, vocabEntry{ID: int(j), Name: j.String()})
	}
	writeJSON(w, http.StatusOK, map[string][]vocabEntry{"justifications": entries})
}

// handleResolveName resolves one name in the addressed vocabulary. An
// unknown name answers 404 carrying the domain's sentinel identifier; only
// an unknown vocabulary is an error.
func (s *Server) handleResolveName(w http.ResponseWriter, r *http.Request) {
	vocab := chi.URLParam(r, "domain")
	name := chi.URLParam(r, "*")

	var (
		entry any
		hit   bool
	)
	switch vocab {
	case "protocols":
		id := ident.ParseProto(name)
		hit = id != ident.ProtoUnknown
		entry = vocabEntry{ID: int(id), Name: id.String()}
	case "sources":
		id := ident.ParseSource(name)
		hit = id != ident.SourceUnknown
		entry = vocabEntry{ID: int(id), Name: id.String()}
	case "colormodes":
		id := ident.ParseColorMode(name)
		hit = id != ident.ColorModeUnknown
		entry = vocabEntry{ID: int(id), Name: id.String()}
	case "formats":
		id := ident.ParseFormat(name)
		hit = id != ident.FormatUnknown
		entry = formatEntry{ID: int(id), Name: id.MIMEName(), ShortName: id.ShortName()}
	case "justifications":
		id := ident.ParseJustificationX(name)
		hit = id != ident.JustificationXUnknown
		entry = vocabEntry{ID: int(id), Name: id.String()}
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown vocabulary domain %q", vocab))
		return
	}

	s.metrics.IncVocabLookups(r.Context(), vocab, hit)

	status := http.StatusOK
	if !hit {
		status = http.StatusNotFound
	}
	writeJSON(w, status, entry)
}

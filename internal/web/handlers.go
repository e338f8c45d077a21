package web

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/http"

	"github.com/matsen/refmerge/internal/merge"
	"github.com/segmentio/encoding/json"
)

// Messages shown on the form.
const (
	MsgNoFiles = "Please upload .ris and .enw files to start merging."
	MsgSuccess = "Merging complete! Download your merged files."
)

// WarningHeader carries merge warnings on direct downloads, one value per warning.
const WarningHeader = "X-Refmerge-Warning"

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, s.page())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

// handleMerge merges the uploaded batch and renders the result page.
func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	files, err := readUploads(w, r, s.maxUpload)
	if err != nil {
		data := s.page()
		data.Errors = []string{err.Error()}
		s.render(w, uploadStatus(err), data)
		return
	}

	data := s.page()
	if len(files) == 0 {
		data.Info = MsgNoFiles
		s.render(w, http.StatusOK, data)
		return
	}

	res := s.merger.Merge(files)
	s.logMerge("web", len(files), res)
	s.record(r.Context(), "web", len(files), res)

	data.Errors, data.Warnings = pageMessages(res)
	data.Result = newResultView(res, s.merger.Options().Mode)
	data.Success = MsgSuccess
	s.render(w, http.StatusOK, data)
}

// pageMessages lists each failed file once, as an error, and keeps the
// remaining warnings.
func pageMessages(res merge.Result) (errs, warnings []string) {
	shown := make(map[string]bool, len(res.Errors))
	for _, err := range res.Errors {
		errs = append(errs, err.Error())
		var decErr *merge.DecodeError
		if errors.As(err, &decErr) {
			shown[decErr.Warning()] = true
		}
	}
	for _, w := range res.Warnings {
		if !shown[w] {
			warnings = append(warnings, w)
		}
	}
	return errs, warnings
}

// handleDownload merges the uploaded batch and returns one format as an attachment.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	class, ok := merge.ParseClass(r.PathValue("format"))
	if !ok {
		http.Error(w, fmt.Sprintf("unknown format %q (valid: ris, enw)", r.PathValue("format")), http.StatusNotFound)
		return
	}

	files, err := readUploads(w, r, s.maxUpload)
	if err != nil {
		http.Error(w, err.Error(), uploadStatus(err))
		return
	}

	res := s.merger.Merge(files)
	if len(files) > 0 {
		s.logMerge("download", len(files), res)
		s.record(r.Context(), "download", len(files), res)
	}

	for _, warning := range res.Warnings {
		w.Header().Add(WarningHeader, warning)
	}
	body := res.Output(class)
	w.Header().Set("Content-Type", class.MediaType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": class.OutputName()}))
	w.Write([]byte(body))
}

// APIResponse is the JSON body returned by POST /api/merge.
type APIResponse struct {
	RIS      string      `json:"ris"`
	ENW      string      `json:"enw"`
	Mode     string      `json:"mode"`
	Warnings []string    `json:"warnings"`
	Errors   []string    `json:"errors"`
	Stats    merge.Stats `json:"stats"`
}

// APIError is the JSON error body of the API.
type APIError struct {
	Error string `json:"error"`
}

func (s *Server) handleAPIMerge(w http.ResponseWriter, r *http.Request) {
	files, err := readUploads(w, r, s.maxUpload)
	if err != nil {
		writeJSON(w, uploadStatus(err), APIError{Error: err.Error()})
		return
	}

	res := s.merger.Merge(files)
	if len(files) > 0 {
		s.logMerge("api", len(files), res)
		s.record(r.Context(), "api", len(files), res)
	}

	resp := APIResponse{
		RIS:      res.RIS,
		ENW:      res.ENW,
		Mode:     s.merger.Options().Mode.String(),
		Warnings: res.Warnings,
		Errors:   make([]string, 0, len(res.Errors)),
		Stats:    res.Stats,
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	for _, e := range res.Errors {
		resp.Errors = append(resp.Errors, e.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := compiledTemplate.Execute(w, data); err != nil {
		s.log.WithError(err).Error("rendering page")
	}
}

func (s *Server) page() pageData {
	return pageData{
		Accept:     ".ris,.enw",
		Field:      FormField,
		SupportURL: s.supportURL,
	}
}

// download is one merged file offered on the result page.
type download struct {
	Label     string
	Name      string
	MediaType string
	Href      template.URL
	Size      int
}

type resultView struct {
	Mode      string
	Stats     merge.Stats
	Downloads []download
}

func newResultView(res merge.Result, mode merge.Mode) *resultView {
	return &resultView{
		Mode:  mode.String(),
		Stats: res.Stats,
		Downloads: []download{
			newDownload("Download Merged RIS File", merge.RIS, res.RIS),
			newDownload("Download Merged ENW File", merge.ENW, res.ENW),
		},
	}
}

// newDownload embeds the merged text as a data URI so the result page needs
// no server-side state.
func newDownload(label string, class merge.ExtensionClass, body string) download {
	href := "data:" + class.MediaType() + ";charset=utf-8;base64," + base64.StdEncoding.EncodeToString([]byte(body))
	return download{
		Label:     label,
		Name:      class.OutputName(),
		MediaType: class.MediaType(),
		Href:      template.URL(href),
		Size:      len(body),
	}
}

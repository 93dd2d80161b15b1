package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"zenwriter/composer"
	"zenwriter/generator"
	"zenwriter/preview"
)

type documentCreateReq struct {
	ID string `json:"id"`
}

type textReq struct {
	Text string `json:"text"`
}

type selectionReq struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type improveReq struct {
	Instruction string `json:"instruction"`
}

type documentResp struct {
	ID         string                      `json:"id"`
	Text       string                      `json:"text"`
	Selection  *composer.Selection         `json:"selection"`
	Generating bool                        `json:"generating"`
	Session    *composer.GenerationSession `json:"session,omitempty"`
	LastSaved  *time.Time                  `json:"last_saved,omitempty"`
	Stats      preview.Stats               `json:"stats"`
}

type alternativesResp struct {
	Phrase       string   `json:"phrase"`
	Alternatives []string `json:"alternatives"`
}

type previewResp struct {
	HTML    string `json:"html"`
	Excerpt string `json:"excerpt"`
}

const excerptChars = 120

func snapshot(id string, ctrl *composer.Controller) documentResp {
	text := ctrl.Text()
	resp := documentResp{
		ID:        id,
		Text:      text,
		Selection: ctrl.Selection(),
		Session:   ctrl.Session(),
		Stats:     preview.Count(text),
	}
	resp.Generating = resp.Session != nil
	if at := ctrl.LastSaved(); !at.IsZero() {
		resp.LastSaved = &at
	}
	return resp
}

// decode reads an optional JSON body into v; an empty body leaves v unchanged.
func decode(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// document resolves the {id} path value to an open controller, writing the
// error response itself when it cannot.
func (s *Server) document(w http.ResponseWriter, r *http.Request) (string, *composer.Controller, bool) {
	id := r.PathValue("id")
	ctrl, err := s.docs.get(r.Context(), id)
	if err != nil {
		s.log.Warn("open document failed", zap.String("document", id), zap.Error(err))
		writeError(w, http.StatusBadRequest, err)
		return id, nil, false
	}
	return id, ctrl, true
}

func (s *Server) handleDocumentCreate(w http.ResponseWriter, r *http.Request) {
	var req documentCreateReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ID == "" {
		req.ID = newDocumentID()
	}
	ctrl, err := s.docs.get(r.Context(), req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, snapshot(req.ID, ctrl))
}

func (s *Server) handleDocumentGet(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := s.document(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snapshot(id, ctrl))
}

func (s *Server) handleTextPut(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := s.document(w, r)
	if !ok {
		return
	}
	var req textReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := ctrl.Edit(req.Text); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot(id, ctrl))
}

func (s *Server) handleTextClear(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := s.document(w, r)
	if !ok {
		return
	}
	if err := ctrl.Edit(""); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot(id, ctrl))
}

func (s *Server) handleSelectionPut(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := s.document(w, r)
	if !ok {
		return
	}
	var req selectionReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ctrl.UpdateSelection(req.Start, req.End)
	writeJSON(w, http.StatusOK, snapshot(id, ctrl))
}

func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request) {
	_, ctrl, ok := s.document(w, r)
	if !ok {
		return
	}
	ctx, cancel := s.aiContext(r)
	sess, err := ctrl.BeginContinue(ctx)
	if err != nil {
		cancel()
		writeError(w, statusFor(err), err)
		return
	}
	go func() {
		<-sess.Done()
		cancel()
	}()
	writeJSON(w, http.StatusAccepted, sess)
}

func (s *Server) handleImprove(w http.ResponseWriter, r *http.Request) {
	_, ctrl, ok := s.document(w, r)
	if !ok {
		return
	}
	var req improveReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ctx, cancel := s.aiContext(r)
	sess, err := ctrl.BeginImprove(ctx, req.Instruction)
	if err != nil {
		cancel()
		writeError(w, statusFor(err), err)
		return
	}
	go func() {
		<-sess.Done()
		cancel()
	}()
	writeJSON(w, http.StatusAccepted, sess)
}

func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := s.document(w, r)
	if !ok {
		return
	}
	ctrl.Abort()
	writeJSON(w, http.StatusOK, snapshot(id, ctrl))
}

func (s *Server) handleAlternatives(w http.ResponseWriter, r *http.Request) {
	_, ctrl, ok := s.document(w, r)
	if !ok {
		return
	}
	sel := ctrl.Selection()
	if sel == nil {
		writeError(w, http.StatusUnprocessableEntity, composer.ErrNoSelection)
		return
	}
	ctx, cancel := s.aiContext(r)
	defer cancel()
	alts, err := s.agent.Alternatives(ctx, sel.Text)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, alternativesResp{Phrase: sel.Text, Alternatives: alts})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	_, ctrl, ok := s.document(w, r)
	if !ok {
		return
	}
	text := ctrl.Text()
	html, err := preview.Render(text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, previewResp{HTML: html, Excerpt: preview.Excerpt(text, excerptChars)})
}

func (s *Server) handlePresets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, generator.Presets)
}

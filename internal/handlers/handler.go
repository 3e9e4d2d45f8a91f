// Package handlers is the JSON surface the site UI and vendors talk to.
package handlers

import (
	"site-defects/internal/backend"
	"site-defects/internal/database"
	"site-defects/internal/store"
	"site-defects/internal/workflow"

	"go.uber.org/zap"
)

type Deps struct {
	Backend  *backend.Client
	Workflow *workflow.Service
	Audit    *database.AuditStore
	Drafts   *store.DraftPhotos
	// RepairBaseURL prefixes the vendor repair link encoded in QR codes.
	RepairBaseURL string
	Logger        *zap.Logger
}

type Handler struct {
	backend   *backend.Client
	workflow  *workflow.Service
	audit     *database.AuditStore
	drafts    *store.DraftPhotos
	repairURL string
	log       *zap.Logger
}

func New(d Deps) *Handler {
	h := &Handler{
		backend:   d.Backend,
		workflow:  d.Workflow,
		audit:     d.Audit,
		drafts:    d.Drafts,
		repairURL: d.RepairBaseURL,
		log:       d.Logger,
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	return h
}

package handler

import (
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/staffdesk/staffdesk/pkg/logger"
)

type Conf struct {
	DB    *sqlx.DB
	Log   *logger.Logger
	Build string
}

// RegisterRoutes returns a mux with the probe endpoints registered on it.
func RegisterRoutes(cfg Conf) *http.ServeMux {
	mux := http.NewServeMux()

	h := handler{
		db:    cfg.DB,
		log:   cfg.Log,
		build: cfg.Build,
	}

	mux.HandleFunc("/v1/readiness", h.readiness)
	mux.HandleFunc("/v1/liveness", h.liveness)

	return mux
}

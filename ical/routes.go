package ical

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"contestcal/storage"
)

func Routes(loader storage.Loader, version string) http.Handler {
	h := NewHandler(loader, version)
	r := chi.NewRouter()
	r.Handle("/", h)
	r.Handle("/{platform}", h)
	return r
}

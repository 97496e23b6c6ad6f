package v1

import (
	"net/http"

	"github.com/zintix-labs/patternlab/catalog"
)

type profilesResponse struct {
	Default  string            `json:"default"`
	Profiles []catalog.Summary `json:"profiles"`
}

// Profiles GET /v1/profiles
func (h *Handler) Profiles(w http.ResponseWriter, r *http.Request) {
	list, err := h.lab.Profiles()
	if err != nil {
		h.fail(w, r, "list profiles", err)
		return
	}
	writeJSON(w, r, http.StatusOK, profilesResponse{Default: h.lab.DefaultProfile(), Profiles: list})
}

package amenity

import (
	"net/http"

	"amenitybook/internal/api"
)

type Handlers struct {
	Repo *Repository
}

// List returns the bookable amenities of the caller's community.
func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	p := api.RequirePrincipal(w, r)
	if p == nil {
		return
	}
	items, err := h.Repo.ListByCommunity(r.Context(), p.CommunityID)
	if err != nil {
		api.WriteInternal(w, "amenity: list community="+p.CommunityID, err, false)
		return
	}
	if items == nil {
		items = []Amenity{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

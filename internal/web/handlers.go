package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/harms-haus/memoriae/internal/category"
	"github.com/harms-haus/memoriae/internal/errors"
	"github.com/harms-haus/memoriae/internal/ops"
)

// DefaultUser is the identity web requests run as, matching the MCP surface.
const DefaultUser = "local"

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	env      *ops.Env
	renderer *Renderer
	user     string
}

// HandleList handles GET /seeds — list live seeds, newest first.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	result, err := ops.ListSeeds(r.Context(), h.env, ops.ListSeedsInput{
		UserID: h.user,
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "list", ListPageData{
		PageData: PageData{
			Title:   "Seeds",
			Version: h.renderer.version,
			Nav:     "seeds",
		},
		Seeds:      result.Seeds,
		Pagination: result.Pagination,
	})
}

// HandleDetail handles GET /seeds/{id} — view a single seed with its log.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("seed ID is required"))
		return
	}

	result, err := ops.FetchSeed(r.Context(), h.env, ops.FetchSeedInput{
		ID:         id,
		UserID:     h.user,
		IncludeLog: true,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	cats, err := h.seedCategories(r, result.Seed.CategoryIDs)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	title := result.Seed.Title
	if title == "" {
		title = result.Seed.ID
	}

	h.renderer.renderPage(w, "detail", DetailPageData{
		PageData: PageData{
			Title:   title,
			Version: h.renderer.version,
			Nav:     "seeds",
		},
		Seed:         result.Seed,
		Log:          result.Log,
		Categories:   cats,
		RenderedHTML: renderMarkdown(result.Seed.Content),
		DisplayName:  title,
	})
}

// HandleCategories handles GET /categories — the whole tree ordered by path.
func (h *Handlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	result, err := ops.ListCategories(r.Context(), h.env, ops.ListCategoriesInput{UserID: h.user})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "categories", CategoriesPageData{
		PageData: PageData{
			Title:   "Categories",
			Version: h.renderer.version,
			Nav:     "categories",
		},
		Categories: result.Categories,
	})
}

// HandleDelete handles DELETE /seeds/{id} — soft-delete a seed.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("seed ID is required"))
		return
	}

	result, err := ops.DeleteSeed(r.Context(), h.env, ops.DeleteSeedInput{
		ID:     id,
		UserID: h.user,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{
			"deleted": result.Deleted,
			"id":      result.ID,
		})
		return
	}

	http.Redirect(w, r, "/seeds", http.StatusFound)
}

// seedCategories resolves a seed's tags to full category nodes, keeping the
// tag order.
func (h *Handlers) seedCategories(r *http.Request, ids []string) ([]*category.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	result, err := ops.ListCategories(r.Context(), h.env, ops.ListCategoriesInput{UserID: h.user})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*category.Category, len(result.Categories))
	for _, c := range result.Categories {
		byID[c.ID] = c
	}

	cats := make([]*category.Category, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			cats = append(cats, c)
		}
	}
	return cats, nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

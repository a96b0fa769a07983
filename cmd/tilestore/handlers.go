package main

import (
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"strconv"

	"github.com/azybler/tilestore/pkg/connectivity"
	"github.com/azybler/tilestore/pkg/graphid"
	"github.com/azybler/tilestore/pkg/hierarchy"
	"github.com/azybler/tilestore/pkg/tile"
)

// Handlers holds the HTTP handlers and the state they read from.
type Handlers struct {
	hierarchy *hierarchy.TileHierarchy
	conn      *connectivity.Map
}

// NewHandlers creates handlers serving h's tile store and conn's precomputed connectivity snapshot.
func NewHandlers(h *hierarchy.TileHierarchy, conn *connectivity.Map) *Handlers {
	return &Handlers{hierarchy: h, conn: conn}
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// levelInfo is the JSON shape returned by HandleLevels.
type levelInfo struct {
	Level                   uint32  `json:"level"`
	TileSizeDegrees         float64 `json:"tile_size_degrees"`
	RoadImportanceThreshold int     `json:"road_importance_threshold"`
	Columns                 int32   `json:"columns"`
	Rows                    int32   `json:"rows"`
}

// HandleLevels handles GET /api/v1/levels.
func (h *Handlers) HandleLevels(w http.ResponseWriter, r *http.Request) {
	levels := h.hierarchy.Levels()
	out := make([]levelInfo, 0, len(levels))
	for _, lvl := range levels {
		out = append(out, levelInfo{
			Level:                   lvl.Level,
			TileSizeDegrees:         lvl.TileSizeDegrees,
			RoadImportanceThreshold: lvl.RoadImportanceThreshold,
			Columns:                 lvl.Tiles.Columns(),
			Rows:                    lvl.Tiles.Rows(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleConnectivityGeoJSON handles GET /api/v1/connectivity/{level}.geojson.
func (h *Handlers) HandleConnectivityGeoJSON(w http.ResponseWriter, r *http.Request) {
	level, err := parseLevel(r.PathValue("level"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_level")
		return
	}
	fc, err := h.conn.ToGeoJson(level)
	if err != nil {
		if errors.Is(err, hierarchy.ErrInvalidLevel) {
			writeError(w, http.StatusNotFound, "invalid_level")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(data)
}

// HandleConnectivityRaster handles GET /api/v1/connectivity/{level}.png.
func (h *Handlers) HandleConnectivityRaster(w http.ResponseWriter, r *http.Request) {
	level, err := parseLevel(r.PathValue("level"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_level")
		return
	}
	raster, columns, rows, err := h.conn.ToImage(level)
	if err != nil {
		if errors.Is(err, hierarchy.ErrInvalidLevel) {
			writeError(w, http.StatusNotFound, "invalid_level")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	img := image.NewRGBA(image.Rect(0, 0, columns, rows))
	for i, c := range raster {
		img.Set(i%columns, i/columns, colorForComponent(c))
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

// colorForComponent picks a deterministic, visually distinct RGBA for a
// component color index; 0 (absent) renders fully transparent.
func colorForComponent(c uint32) color.RGBA {
	if c == 0 {
		return color.RGBA{0, 0, 0, 0}
	}
	// Golden-ratio hashing of the color index into a hue, for a stable but
	// well-spread palette regardless of how many components exist.
	hue := float64((c * 2654435761) % 360)
	return hsvToRGBA(hue, 0.65, 0.95)
}

func hsvToRGBA(h, s, v float64) color.RGBA {
	c := v * s
	x := c * (1 - absFloat(modFloat(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return color.RGBA{
		R: uint8((r + m) * 255),
		G: uint8((g + m) * 255),
		B: uint8((b + m) * 255),
		A: 255,
	}
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func modFloat(f, m float64) float64 {
	for f >= m {
		f -= m
	}
	for f < 0 {
		f += m
	}
	return f
}

// tileStats is the JSON shape returned by HandleTileStats.
type tileStats struct {
	Empty                  bool   `json:"empty"`
	NodeCount              uint32 `json:"node_count,omitempty"`
	DirectedEdgeCount      uint32 `json:"directed_edge_count,omitempty"`
	SignCount              uint32 `json:"sign_count,omitempty"`
	AdminCount             uint32 `json:"admin_count,omitempty"`
	DepartureCount         uint32 `json:"departure_count,omitempty"`
	StopCount              uint32 `json:"stop_count,omitempty"`
	RouteCount             uint32 `json:"route_count,omitempty"`
	TransferCount          uint32 `json:"transfer_count,omitempty"`
	AccessRestrictionCount uint32 `json:"access_restriction_count,omitempty"`
}

// HandleTileStats handles GET /api/v1/tiles/{level}/{tile}/stats.
func (h *Handlers) HandleTileStats(w http.ResponseWriter, r *http.Request) {
	level, err := parseLevel(r.PathValue("level"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_level")
		return
	}
	tileIndex, err := strconv.ParseUint(r.PathValue("tile"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_tile_index")
		return
	}
	id, err := graphid.New(level, uint32(tileIndex), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_tile_id")
		return
	}

	t, err := tile.Open(id, h.hierarchy)
	if err != nil {
		if errors.Is(err, hierarchy.ErrInvalidLevel) {
			writeError(w, http.StatusNotFound, "invalid_level")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	if t.Empty() {
		writeJSON(w, http.StatusOK, tileStats{Empty: true})
		return
	}

	hdr := t.Header()
	writeJSON(w, http.StatusOK, tileStats{
		NodeCount:              hdr.NodeCount,
		DirectedEdgeCount:      hdr.DirectedEdgeCount,
		SignCount:              hdr.SignCount,
		AdminCount:             hdr.AdminCount,
		DepartureCount:         hdr.DepartureCount,
		StopCount:              hdr.StopCount,
		RouteCount:             hdr.RouteCount,
		TransferCount:          hdr.TransferCount,
		AccessRestrictionCount: hdr.AccessRestrictionCount,
	})
}

func parseLevel(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

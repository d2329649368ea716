// Package remote serves path queries over HTTP and websockets.
package remote

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/milk9111/terrainpath/pathfinding"
	"github.com/milk9111/terrainpath/planner"
)

const (
	typeSearch = "search"
	typeResult = "result"
	typeError  = "error"
)

// Request asks for a path between two world positions.
type Request struct {
	Type  string     `json:"type"`
	Seq   uint64     `json:"seq,omitempty"`
	Start mgl64.Vec3 `json:"start"`
	Goal  mgl64.Vec3 `json:"goal"`
	// States requests the per-node classification of the search.
	States bool `json:"states,omitempty"`
}

type Response struct {
	Type     string       `json:"type"`
	Seq      uint64       `json:"seq,omitempty"`
	Found    bool         `json:"found"`
	Path     []mgl64.Vec3 `json:"path"`
	Cost     float64      `json:"cost"`
	Expanded int          `json:"expanded"`
	States   string       `json:"states,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// GridInfo describes the lattice so clients can lay out the states string.
type GridInfo struct {
	Width   int     `json:"width"`
	Length  int     `json:"length"`
	Spacing float64 `json:"spacing"`
	Blocked int     `json:"blocked"`
}

var stateGlyphs = map[pathfinding.NodeState]byte{
	pathfinding.StateUnvisited: '.',
	pathfinding.StateOpen:      'o',
	pathfinding.StateClosed:    'x',
	pathfinding.StateBlocked:   '#',
	pathfinding.StateOnPath:    '*',
}

// EncodeStates renders one glyph per node in row-major order.
func EncodeStates(states []pathfinding.NodeState) string {
	var b strings.Builder
	b.Grow(len(states))
	for _, s := range states {
		g, ok := stateGlyphs[s]
		if !ok {
			g = '?'
		}
		b.WriteByte(g)
	}
	return b.String()
}

type HandlerConfig struct {
	Logger *log.Logger
}

type Handler struct {
	planner  *planner.Planner
	logger   *log.Logger
	upgrader websocket.Upgrader
}

func NewHandler(p *planner.Planner, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return &Handler{
		planner:  p,
		logger:   logger,
		upgrader: upgrader,
	}
}

// Routes registers the handler endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/grid", h.HandleGrid)
	mux.HandleFunc("/search", h.HandleSearch)
	mux.HandleFunc("/ws", h.HandleSocket)
}

// Answer runs one request against the planner.
func (h *Handler) Answer(req Request) Response {
	resp := Response{Type: typeResult, Seq: req.Seq}
	if req.Type != "" && req.Type != typeSearch {
		resp.Type = typeError
		resp.Error = "unknown message type " + strconv.Quote(req.Type)
		return resp
	}

	snap, err := h.planner.Query(req.Start, req.Goal)
	res := snap.Result
	if err != nil && !errors.Is(err, pathfinding.ErrBudgetExhausted) {
		resp.Type = typeError
		resp.Error = err.Error()
		return resp
	}
	if err != nil {
		resp.Error = err.Error()
	}
	resp.Found = res.Found
	resp.Path = res.Path
	if resp.Path == nil {
		resp.Path = []mgl64.Vec3{}
	}
	resp.Cost = res.Cost
	resp.Expanded = res.Expanded
	if req.States {
		resp.States = EncodeStates(snap.States)
	}
	return resp
}

func (h *Handler) HandleGrid(w http.ResponseWriter, r *http.Request) {
	g := h.planner.Grid()
	h.writeJSON(w, http.StatusOK, GridInfo{
		Width:   g.Width,
		Length:  g.Length,
		Spacing: g.Spacing,
		Blocked: g.BlockedCount(),
	})
}

// HandleSearch answers GET /search?from=x,z&to=x,z.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := parsePoint(q.Get("from"))
	if err != nil {
		http.Error(w, "from: "+err.Error(), http.StatusBadRequest)
		return
	}
	goal, err := parsePoint(q.Get("to"))
	if err != nil {
		http.Error(w, "to: "+err.Error(), http.StatusBadRequest)
		return
	}
	states, _ := strconv.ParseBool(q.Get("states"))

	resp := h.Answer(Request{Start: start, Goal: goal, States: states})
	status := http.StatusOK
	if resp.Type == typeError {
		status = http.StatusUnprocessableEntity
	}
	h.writeJSON(w, status, resp)
}

// HandleSocket answers search requests on a websocket until the client
// goes away.
func (h *Handler) HandleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("remote: upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Printf("remote: read from %s: %v", r.RemoteAddr, err)
			}
			return
		}

		var req Request
		if err := json.Unmarshal(payload, &req); err != nil {
			h.logger.Printf("remote: discarding malformed message from %s: %v", r.RemoteAddr, err)
			if err := conn.WriteJSON(Response{Type: typeError, Error: "malformed request"}); err != nil {
				return
			}
			continue
		}

		if err := conn.WriteJSON(h.Answer(req)); err != nil {
			h.logger.Printf("remote: write to %s: %v", r.RemoteAddr, err)
			return
		}
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Printf("remote: marshal response: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// parsePoint reads "x,z" or "x,y,z".
func parsePoint(s string) (mgl64.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 && len(parts) != 3 {
		return mgl64.Vec3{}, errors.New("want x,z or x,y,z")
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return mgl64.Vec3{}, err
		}
		vals[i] = v
	}
	if len(vals) == 2 {
		return mgl64.Vec3{vals[0], 0, vals[1]}, nil
	}
	return mgl64.Vec3{vals[0], vals[1], vals[2]}, nil
}

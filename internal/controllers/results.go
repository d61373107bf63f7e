package controllers

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"

	"github.com/rahul4469/code-scanner/internal/middleware"
	"github.com/rahul4469/code-scanner/internal/poller"
	"github.com/rahul4469/code-scanner/internal/report"
	"github.com/rahul4469/code-scanner/internal/views"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// ResultsController serves the results page and streams view updates to it.
// Each websocket connection is one view instance with its own Watcher;
// closing the connection tears the watcher down.
type ResultsController struct {
	fetcher   poller.ResultFetcher
	policy    poller.Policy
	clock     poller.Clock
	templates ResultsTemplates
	theme     views.Theme
	upgrader  websocket.Upgrader
	logger    logr.Logger
}

// ResultsTemplates holds the templates for the results page.
type ResultsTemplates struct {
	Page *views.Template
}

// NewResultsController creates a new ResultsController.
func NewResultsController(fetcher poller.ResultFetcher, policy poller.Policy, templates ResultsTemplates, theme views.Theme, logger logr.Logger) *ResultsController {
	return &ResultsController{
		fetcher:   fetcher,
		policy:    policy,
		clock:     poller.SystemClock{},
		templates: templates,
		theme:     theme,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.WithName("results"),
	}
}

// ResultsPageData holds data for the results page template.
type ResultsPageData struct {
	View         report.View
	ArtifactName string
	StreamURL    string
}

// ResultMessage is pushed to the browser for every distinct view.
type ResultMessage struct {
	Type     string          `json:"type"`
	JobID    string          `json:"job_id"`
	Kind     report.ViewKind `json:"kind"`
	HTML     string          `json:"html"`
	Terminal bool            `json:"terminal"`
}

// GetResult renders the results page shell in its loading state.
func (c *ResultsController) GetResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Invalid analysis ID", http.StatusBadRequest)
		return
	}

	data := &views.TemplateData{
		Title: "Analysis " + id,
		Theme: views.ThemeFor(r.URL.Query().Get("theme"), c.theme),
		Data: ResultsPageData{
			View:         report.View{Kind: report.ViewLoading, JobID: id},
			ArtifactName: r.URL.Query().Get("name"),
			StreamURL:    "/results/" + url.PathEscape(id) + "/ws",
		},
	}
	c.templates.Page.ExecuteHTTP(w, r, data)
}

// StreamResult upgrades to a websocket, watches the job and pushes each
// distinct view until a terminal one has been delivered or the client goes
// away.
func (c *ResultsController) StreamResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	logger := middleware.Logger(r).WithValues("job", id)

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error(err, "failed to upgrade to websocket")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Latest view wins. The observer is the only sender, so after draining
	// the slot the send never blocks.
	updates := make(chan report.View, 1)
	watcher := poller.NewWatcher(id, c.fetcher,
		poller.WithPolicy(c.policy),
		poller.WithClock(c.clock),
		poller.WithLogger(logger),
		poller.WithObserver(func(s poller.Snapshot) {
			v := report.RenderView(s)
			select {
			case <-updates:
			default:
			}
			updates <- v
		}),
	)
	defer watcher.Close()

	go c.readPump(conn, cancel)

	if err := watcher.Start(ctx); err != nil {
		logger.Error(err, "failed to start watcher")
		return
	}

	c.writePump(ctx, conn, updates, logger)
}

// readPump discards client messages and cancels ctx once the client is gone.
func (c *ResultsController) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *ResultsController) writePump(ctx context.Context, conn *websocket.Conn, updates <-chan report.View, logger logr.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}

		case v := <-updates:
			fragment, err := c.templates.Page.ExecuteFragment("result-view", v)
			if err != nil {
				logger.Error(err, "failed to render result view")
				return
			}

			// identical output is not pushed twice
			if fragment != last {
				last = fragment
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				err := conn.WriteJSON(ResultMessage{
					Type:     "result_update",
					JobID:    v.JobID,
					Kind:     v.Kind,
					HTML:     fragment,
					Terminal: v.Terminal(),
				})
				if err != nil {
					logger.V(1).Info("client went away", "error", err.Error())
					return
				}
			}

			if v.Terminal() {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
					time.Now().Add(writeWait))
				return
			}
		}
	}
}

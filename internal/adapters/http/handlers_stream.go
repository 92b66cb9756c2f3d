package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"congregation/internal/adapters/http/middleware"
	"congregation/internal/application/live"
	"congregation/internal/application/session"
	"congregation/internal/domain/change"
	profileDomain "congregation/internal/domain/profile"
)

// keepAlive is how often an idle event stream sends a comment line.
var keepAlive = 25 * time.Second

// eventStream writes Server-Sent Events.
type eventStream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// openStream sends the event-stream headers. The connection is the mount:
// whatever the handler starts lives until the client goes away.
func openStream(w http.ResponseWriter) *eventStream {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	s := &eventStream{w: w, rc: http.NewResponseController(w)}
	s.rc.Flush()
	return s
}

// send writes one event whose data is v as JSON, or v itself when it is a string.
func (s *eventStream) send(event string, v any) error {
	var data []byte
	if str, ok := v.(string); ok {
		data = []byte(str)
	} else {
		var err error
		if data, err = json.Marshal(v); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return s.rc.Flush()
}

func (s *eventStream) ping() error {
	if _, err := fmt.Fprint(s.w, ": ping\n\n"); err != nil {
		return err
	}
	return s.rc.Flush()
}

// streamStates forwards hook snapshots, as view renders them, until the
// client leaves or the hook closes.
func streamStates[T any](r *http.Request, s *eventStream, updates <-chan T, view func(T) any) {
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := s.ping(); err != nil {
				return
			}
		case st, ok := <-updates:
			if !ok {
				return
			}
			if err := s.send("state", view(st)); err != nil {
				return
			}
		}
	}
}

// profileView is one profile stream event: the hook state plus the form a
// viewing screen shows for it.
type profileView struct {
	live.ProfileState
	Form *profileDomain.Form `json:"form,omitempty"`
}

// profileViewer mirrors hook states through a viewing editor.
func profileViewer() func(live.ProfileState) any {
	var ed *profileDomain.Editor
	return func(st live.ProfileState) any {
		v := profileView{ProfileState: st}
		if st.Profile == nil {
			return v
		}
		if ed == nil {
			ed = profileDomain.NewEditor(*st.Profile)
		} else {
			ed.Refresh(*st.Profile)
		}
		form := ed.Draft()
		v.Form = &form
		return v
	}
}

// handleProfileStream handles GET /api/profile/stream: the profile sync hook
// mounted for the duration of the connection.
func handleProfileStream(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	ctx := r.Context()
	identity := session.NewContext(middleware.DeviceFromContext(ctx), identityOf(sess, ok))

	hook := live.NewProfileSync(identity, stores.ProfileStore, feed)
	defer hook.Close()

	s := openStream(w)
	hook.Start(ctx)
	view := profileViewer()
	if err := s.send("state", view(hook.State())); err != nil {
		return
	}
	streamStates(r, s, hook.Updates(), view)
}

// catalogStream is a mounted video stream a member can retarget.
type catalogStream struct {
	owner   string
	catalog *live.VideoCatalog
}

// catalogStreams holds the mounted video streams by ID.
var catalogStreams = struct {
	sync.Mutex
	m map[string]catalogStream
}{m: make(map[string]catalogStream)}

func mountCatalog(owner string, c *live.VideoCatalog) string {
	id := generateID()
	catalogStreams.Lock()
	catalogStreams.m[id] = catalogStream{owner: owner, catalog: c}
	catalogStreams.Unlock()
	return id
}

func unmountCatalog(id string) {
	catalogStreams.Lock()
	delete(catalogStreams.m, id)
	catalogStreams.Unlock()
}

// handleVideoStream handles GET /api/videos/stream?category=. The first event
// names the stream so the screen can switch its category in place.
func handleVideoStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := middleware.GetSessionFromContext(ctx)
	catalog := live.NewVideoCatalog(stores.VideoStore, feed, r.URL.Query().Get("category"))
	defer catalog.Close()
	id := mountCatalog(sess.AccountID, catalog)
	defer unmountCatalog(id)

	s := openStream(w)
	if err := s.send("mounted", map[string]string{"stream": id}); err != nil {
		return
	}
	catalog.Start(ctx)
	select {
	case <-catalog.Updates():
	default:
	}
	if err := s.send("state", catalog.State()); err != nil {
		return
	}
	streamStates(r, s, catalog.Updates(), func(st live.CatalogState) any { return st })
}

type categoryRequest struct {
	Category string `json:"category"`
}

// handleVideoStreamCategory handles POST /api/videos/stream/{stream}/category:
// the stream refetches for the new category and pushes the result.
func handleVideoStreamCategory(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	var req categoryRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	catalogStreams.Lock()
	cs, ok := catalogStreams.m[r.PathValue("stream")]
	catalogStreams.Unlock()
	if !ok || cs.owner != sess.AccountID {
		writeJSON(w, http.StatusNotFound, apiError{Error: "stream not found"})
		return
	}
	cs.catalog.SetCategory(r.Context(), req.Category)
	writeJSON(w, http.StatusOK, cs.catalog.State())
}

// handleRealtime handles GET /api/realtime?table=&id=: the raw change feed.
func handleRealtime(w http.ResponseWriter, r *http.Request) {
	filter := change.Filter{Table: r.URL.Query().Get("table"), RecordID: r.URL.Query().Get("id")}
	sub := feed.Subscribe(r.Context(), filter)
	defer sub.Close()

	s := openStream(w)
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.ping(); err != nil {
				return
			}
		case c, ok := <-sub.C:
			if !ok {
				return
			}
			if err := s.send(string(c.Type), c); err != nil {
				return
			}
		}
	}
}

// streamNavigator turns session-context redirects into stream events.
type streamNavigator struct {
	s *eventStream
}

func (n streamNavigator) Redirect(path string) {
	if err := n.s.send("redirect", path); err != nil {
		slog.Debug("session_stream_write_failed", "error", err)
	}
}

// handleSessionEvents handles GET /api/session/events: a session context
// mounted for the connection. Sign-in and sign-out on this device arrive as
// redirect events.
func handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	device := middleware.DeviceFromContext(r.Context())
	sc := session.NewContext(device, identityOf(sess, ok))

	s := openStream(w)
	if err := s.send("identity", map[string]any{"signed_in": sc.SignedIn(), "identity": sc.Current()}); err != nil {
		return
	}
	sc.Listen(r.Context(), notifier, streamNavigator{s: s})
}

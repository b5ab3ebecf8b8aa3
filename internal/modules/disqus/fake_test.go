package disqus

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/mx-space/nodepress/internal/modules/comment"
	"github.com/mx-space/nodepress/internal/pkg/cache"
	disqusapi "github.com/mx-space/nodepress/internal/pkg/disqus"
	"github.com/mx-space/nodepress/internal/testutil"
	"gorm.io/gorm"
)

const (
	testSiteURL    = "https://blog.example.com"
	testAdminToken = "admin-token"
)

// fakeDisqus is an in-memory Disqus API behind an httptest server.
type fakeDisqus struct {
	mu      sync.Mutex
	calls   map[string]int
	forms   map[string]url.Values
	threads map[string]disqusapi.Thread // by link
	users   map[string]disqusapi.User   // by access token
	nextID  int

	failLookup     bool
	failCreatePost bool
	failApprove    bool
	failRemove     bool

	srv *httptest.Server
}

func newFakeDisqus(t *testing.T) *fakeDisqus {
	t.Helper()
	f := &fakeDisqus{
		calls:   map[string]int{},
		forms:   map[string]url.Values{},
		threads: map[string]disqusapi.Thread{},
		users: map[string]disqusapi.User{
			"alice-token": {ID: "1001", Username: "alice", Name: "Alice", URL: "https://alice.dev"},
			"bob-token":   {ID: "1002", Username: "bob", Name: "Bob"},
		},
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeDisqus) client() *disqusapi.Client {
	return disqusapi.New(disqusapi.Options{
		APIKey:    "public",
		APISecret: "secret",
		APIURL:    f.srv.URL + "/api/3.0",
		OAuthURL:  f.srv.URL + "/oauth",
	})
}

func (f *fakeDisqus) count(resource string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[resource]
}

func (f *fakeDisqus) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeDisqus) lastForm(resource string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forms[resource]
}

func (f *fakeDisqus) seedThread(link, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threads[link] = disqusapi.Thread{ID: id, Forum: "blog", Link: link}
}

func (f *fakeDisqus) serve(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if r.URL.Path == "/oauth/access_token/" {
		f.serveToken(w, r.Form)
		return
	}
	resource := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/3.0/"), ".json")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[resource]++
	f.forms[resource] = r.Form

	switch resource {
	case "threads/details":
		if f.failLookup {
			writeFail(w, http.StatusInternalServerError, 15, "Internal server error")
			return
		}
		link := strings.TrimPrefix(r.Form.Get("thread"), "link:")
		thread, ok := f.threads[link]
		if !ok {
			writeFail(w, http.StatusBadRequest, disqusapi.CodeInvalidArgument,
				fmt.Sprintf("Invalid argument, 'thread': Unable to find thread 'link:%s'", link))
			return
		}
		writeOK(w, thread)
	case "threads/create":
		f.nextID++
		thread := disqusapi.Thread{ID: fmt.Sprintf("thread-%d", f.nextID), Forum: r.Form.Get("forum"), Link: r.Form.Get("url"), Title: r.Form.Get("title")}
		f.threads[thread.Link] = thread
		writeOK(w, thread)
	case "threads/list":
		threads := make([]disqusapi.Thread, 0, len(f.threads))
		for _, th := range f.threads {
			threads = append(threads, th)
		}
		writeOK(w, threads)
	case "posts/create":
		if f.failCreatePost {
			writeFail(w, http.StatusBadRequest, disqusapi.CodeInvalidArgument, "Invalid argument, 'message': rejected")
			return
		}
		f.nextID++
		post := disqusapi.Post{ID: fmt.Sprintf("post-%d", f.nextID), Thread: r.Form.Get("thread"), Message: r.Form.Get("message")}
		if token := r.Form.Get("access_token"); token != "" {
			user, ok := f.users[token]
			if !ok {
				writeFail(w, http.StatusBadRequest, 5, "Invalid access token")
				return
			}
			post.Author = disqusapi.Author{ID: user.ID, Username: user.Username, Name: user.Name, URL: user.URL}
			post.IsApproved = true
		} else {
			post.Author = disqusapi.Author{Name: r.Form.Get("author_name"), URL: r.Form.Get("author_url"), IsAnonymous: true}
		}
		writeOK(w, post)
	case "posts/approve":
		if f.failApprove {
			writeFail(w, http.StatusBadRequest, 12, "This application does not have the manage forums permission")
			return
		}
		writeOK(w, []map[string]string{{"id": r.Form.Get("post")}})
	case "posts/remove":
		if f.failRemove {
			writeFail(w, http.StatusInternalServerError, 15, "Internal server error")
			return
		}
		writeOK(w, []map[string]string{{"id": r.Form.Get("post")}})
	case "users/details":
		user, ok := f.users[r.Form.Get("access_token")]
		if !ok {
			writeFail(w, http.StatusBadRequest, 5, "Invalid access token")
			return
		}
		writeOK(w, user)
	case "threads/vote", "posts/vote":
		writeOK(w, map[string]int{"vote": 1})
	default:
		writeFail(w, http.StatusNotFound, 1, "Resource not found")
	}
}

func (f *fakeDisqus) serveToken(w http.ResponseWriter, form url.Values) {
	f.mu.Lock()
	f.calls["oauth/access_token"]++
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch form.Get("grant_type") {
	case "authorization_code":
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "alice-token", "refresh_token": "alice-refresh",
			"expires_in": 3600, "user_id": 1001, "username": "alice",
		})
	case "refresh_token":
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "alice-token", "refresh_token": "alice-refresh-2", "expires_in": 3600,
		})
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func writeOK(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": 0, "response": payload})
}

func writeFail(w http.ResponseWriter, status, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": code, "response": message})
}

type harness struct {
	db       *gorm.DB
	fake     *fakeDisqus
	comments *comment.Service
	cache    *cache.MemoryCache
	private  *PrivateService
	svc      *Service
}

func newHarness(t *testing.T, spam comment.SpamChecker) *harness {
	t.Helper()
	db := testutil.NewDB(t)
	fake := newFakeDisqus(t)
	mem := cache.NewMemoryCache(0)
	t.Cleanup(mem.Close)

	comments := comment.NewService(db, spam, testSiteURL, nil)
	opts := Options{
		Forum:            "blog",
		SiteURL:          testSiteURL,
		CallbackURL:      "https://api.example.com/disqus/oauth-callback",
		AdminAccessToken: testAdminToken,
	}
	private := NewPrivateService(fake.client(), comments, opts, nil)
	return &harness{
		db:       db,
		fake:     fake,
		comments: comments,
		cache:    mem,
		private:  private,
		svc:      NewService(fake.client(), private, comments, mem, opts, nil),
	}
}

func guestDraft(postID int64) comment.CreateCommentDTO {
	return comment.CreateCommentDTO{
		PostID:  postID,
		Content: "hi",
		Author:  comment.AuthorDTO{Name: "guest", Email: "guest@example.com"},
	}
}

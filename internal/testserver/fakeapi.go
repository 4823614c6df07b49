package testserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rpggio/challengr/internal/domain/activity"
	"github.com/rpggio/challengr/internal/domain/calendar"
	"github.com/rpggio/challengr/internal/domain/challenge"
)

type fakeUser struct {
	ID       string
	Name     string
	Email    string
	Password string
}

type checkinKey struct {
	userID     string
	activityID string
	date       string
}

type userKey struct{}

// FakeAPI is an in-memory stand-in for the remote challenge API.
type FakeAPI struct {
	Server *httptest.Server

	secret []byte

	mu         sync.Mutex
	users      map[string]*fakeUser
	challenges map[string]*challenge.Challenge
	activities map[string]*activity.Activity
	order      []string
	checkins   map[checkinKey]bool
	calls      map[string]int
	failures   map[string][]int
}

// NewFakeAPI starts a fake remote API that is closed with the test.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		secret:     []byte("fake-api-secret"),
		users:      make(map[string]*fakeUser),
		challenges: make(map[string]*challenge.Challenge),
		activities: make(map[string]*activity.Activity),
		checkins:   make(map[checkinKey]bool),
		calls:      make(map[string]int),
		failures:   make(map[string][]int),
	}
	f.Server = httptest.NewServer(f.routes())
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the API root to configure clients with.
func (f *FakeAPI) URL() string {
	return f.Server.URL + "/api"
}

func (f *FakeAPI) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(f.countCalls)
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/login", f.login).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", f.register).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(f.requireToken)
	authed.HandleFunc("/challenges/GetMyChallenges", f.myChallenges).Methods(http.MethodGet)
	authed.HandleFunc("/challenges/GetChallengeById/{id}", f.getChallenge).Methods(http.MethodGet)
	authed.HandleFunc("/challenges/CreateChallenge", f.createChallenge).Methods(http.MethodPost)
	authed.HandleFunc("/challenges/UpdateChallenge/{id}", f.updateChallenge).Methods(http.MethodPut)
	authed.HandleFunc("/challenges/DeleteChallenge/{id}", f.deleteChallenge).Methods(http.MethodDelete)
	authed.HandleFunc("/challenges/LeaveChallenge/{id}", f.leaveChallenge).Methods(http.MethodDelete)
	authed.HandleFunc("/challenges/JoinChallenge/{id}", f.joinChallenge).Methods(http.MethodPost)
	authed.HandleFunc("/activities/list/{challengeId}", f.listActivities).Methods(http.MethodGet)
	authed.HandleFunc("/activities/create/{challengeId}", f.createActivity).Methods(http.MethodPost)
	authed.HandleFunc("/activities/update/{id}", f.updateActivity).Methods(http.MethodPut)
	authed.HandleFunc("/activities/{id}/checkins/{date}", f.getCheckin).Methods(http.MethodGet)
	authed.HandleFunc("/activities/{id}/checkins", f.createCheckin).Methods(http.MethodPost)
	authed.HandleFunc("/activities/{id}/checkins/{date}", f.deleteCheckin).Methods(http.MethodDelete)
	return r
}

// routeName keys call counts and injected failures, e.g.
// "POST /api/activities/{id}/checkins".
func routeName(method, template string) string {
	return method + " " + template
}

func (f *FakeAPI) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		template := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				template = tpl
			}
		}
		name := routeName(r.Method, template)

		f.mu.Lock()
		f.calls[name]++
		status := 0
		if queue := f.failures[name]; len(queue) > 0 {
			status = queue[0]
			f.failures[name] = queue[1:]
		}
		f.mu.Unlock()

		if status != 0 {
			http.Error(w, "injected failure", status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return f.secret, nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		_, known := f.userByID(sub)
		f.mu.Unlock()
		if !known {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, sub)))
	})
}

// Calls returns how often a route was hit, keyed like "DELETE /api/challenges/DeleteChallenge/{id}".
func (f *FakeAPI) Calls(method, template string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[routeName(method, template)]
}

// FailNext makes the next call to the route answer with status.
func (f *FakeAPI) FailNext(method, template string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := routeName(method, template)
	f.failures[name] = append(f.failures[name], status)
}

// AddUser registers an account and returns its ID.
func (f *FakeAPI) AddUser(name, email, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &fakeUser{ID: uuid.NewString(), Name: name, Email: strings.ToLower(email), Password: password}
	f.users[u.Email] = u
	return u.ID
}

// IssueToken signs a token for userID that expires after ttl.
func (f *FakeAPI) IssueToken(userID string, ttl time.Duration) string {
	f.mu.Lock()
	u, _ := f.userByID(userID)
	f.mu.Unlock()
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	}
	if u != nil {
		claims["email"] = u.Email
		claims["unique_name"] = u.Name
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

// SeedChallenge stores a challenge owned by ownerID and returns its ID.
func (f *FakeAPI) SeedChallenge(ownerID string, c challenge.Challenge) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.OwnerID = ownerID
	c.Members = []challenge.Member{f.member(ownerID)}
	f.challenges[c.ID] = &c
	return c.ID
}

// SeedActivity stores an activity in a challenge and returns its ID.
func (f *FakeAPI) SeedActivity(challengeID string, a activity.Activity) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.ChallengeID = challengeID
	f.activities[a.ID] = &a
	f.order = append(f.order, a.ID)
	return a.ID
}

// SetCheckin marks an activity done by userID on date.
func (f *FakeAPI) SetCheckin(userID, activityID string, date calendar.Date) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkins[checkinKey{userID, activityID, date.String()}] = true
}

// Checked reports whether userID has a checkin for the activity on date.
func (f *FakeAPI) Checked(userID, activityID string, date calendar.Date) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checkins[checkinKey{userID, activityID, date.String()}]
}

// Challenge returns a copy of the stored challenge.
func (f *FakeAPI) Challenge(id string) (challenge.Challenge, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.challenges[id]
	if !ok {
		return challenge.Challenge{}, false
	}
	return *c, true
}

func (f *FakeAPI) userByID(id string) (*fakeUser, bool) {
	for _, u := range f.users {
		if u.ID == id {
			return u, true
		}
	}
	return nil, false
}

func (f *FakeAPI) member(userID string) challenge.Member {
	m := challenge.Member{ID: userID}
	if u, ok := f.userByID(userID); ok {
		m.Name = u.Name
		m.Email = u.Email
	}
	return m
}

func currentUser(r *http.Request) string {
	id, _ := r.Context().Value(userKey{}).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	u, ok := f.users[strings.ToLower(req.Email)]
	f.mu.Unlock()
	if !ok || u.Password != req.Password {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": f.IssueToken(u.ID, time.Hour)})
}

func (f *FakeAPI) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	_, exists := f.users[strings.ToLower(req.Email)]
	f.mu.Unlock()
	if exists {
		http.Error(w, "email already registered", http.StatusConflict)
		return
	}
	f.AddUser(req.Name, req.Email, req.Password)
	w.WriteHeader(http.StatusCreated)
}

func (f *FakeAPI) myChallenges(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	f.mu.Lock()
	out := []challenge.Challenge{}
	for _, c := range f.challenges {
		if c.OwnerID == user || c.HasMember(user) {
			summary := *c
			summary.Members = nil
			out = append(out, summary)
		}
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

// detailMember is the {id, email, displayName} member shape.
type detailMember struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

func (f *FakeAPI) getChallenge(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.challenges[id]
	if !ok {
		http.NotFound(w, r)
		return
	}
	members := make([]detailMember, 0, len(c.Members))
	for _, m := range c.Members {
		members = append(members, detailMember{ID: m.ID, Email: m.Email, DisplayName: m.Name})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":          c.ID,
		"name":        c.Name,
		"description": c.Description,
		"startDate":   c.StartDate,
		"endDate":     c.EndDate,
		"ownerId":     c.OwnerID,
		"members":     members,
	})
}

func (f *FakeAPI) createChallenge(w http.ResponseWriter, r *http.Request) {
	var req challenge.Challenge
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if !req.EndDate.IsZero() && req.EndDate.Before(req.StartDate) {
		http.Error(w, "end date before start date", http.StatusBadRequest)
		return
	}
	id := f.SeedChallenge(currentUser(r), challenge.Challenge{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	c, _ := f.Challenge(id)
	writeJSON(w, http.StatusCreated, c)
}

func (f *FakeAPI) updateChallenge(w http.ResponseWriter, r *http.Request) {
	var req challenge.Fields
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.challenges[mux.Vars(r)["id"]]
	switch {
	case !ok:
		http.NotFound(w, r)
	case c.OwnerID != currentUser(r):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		c.Name, c.Description = req.Name, req.Description
		w.WriteHeader(http.StatusNoContent)
	}
}

func (f *FakeAPI) deleteChallenge(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := mux.Vars(r)["id"]
	c, ok := f.challenges[id]
	switch {
	case !ok:
		http.NotFound(w, r)
	case c.OwnerID != currentUser(r):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		delete(f.challenges, id)
		for aid, a := range f.activities {
			if a.ChallengeID == id {
				delete(f.activities, aid)
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (f *FakeAPI) leaveChallenge(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := currentUser(r)
	c, ok := f.challenges[mux.Vars(r)["id"]]
	if !ok || !c.HasMember(user) {
		http.NotFound(w, r)
		return
	}
	if c.OwnerID == user {
		http.Error(w, "owner cannot leave", http.StatusBadRequest)
		return
	}
	kept := c.Members[:0]
	for _, m := range c.Members {
		if m.ID != user {
			kept = append(kept, m)
		}
	}
	c.Members = kept
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) joinChallenge(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := currentUser(r)
	c, ok := f.challenges[mux.Vars(r)["id"]]
	switch {
	case !ok:
		http.NotFound(w, r)
	case c.HasMember(user):
		http.Error(w, "already a member", http.StatusConflict)
	default:
		c.Members = append(c.Members, f.member(user))
		w.WriteHeader(http.StatusNoContent)
	}
}

func (f *FakeAPI) listActivities(w http.ResponseWriter, r *http.Request) {
	challengeID := mux.Vars(r)["challengeId"]
	f.mu.Lock()
	if _, ok := f.challenges[challengeID]; !ok {
		f.mu.Unlock()
		http.NotFound(w, r)
		return
	}
	out := []activity.Activity{}
	for _, id := range f.order {
		if a, ok := f.activities[id]; ok && a.ChallengeID == challengeID {
			out = append(out, *a)
		}
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) createActivity(w http.ResponseWriter, r *http.Request) {
	challengeID := mux.Vars(r)["challengeId"]
	var a activity.Activity
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil || a.Name == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if _, ok := f.Challenge(challengeID); !ok {
		http.NotFound(w, r)
		return
	}
	a.ID = ""
	writeJSON(w, http.StatusCreated, map[string]string{"id": f.SeedActivity(challengeID, a)})
}

func (f *FakeAPI) updateActivity(w http.ResponseWriter, r *http.Request) {
	var req activity.Fields
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.activities[mux.Vars(r)["id"]]
	if !ok {
		http.NotFound(w, r)
		return
	}
	a.Name, a.Description, a.Icon = req.Name, req.Description, req.Icon
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) checkinKeyFor(r *http.Request, date string) (checkinKey, bool) {
	d, err := calendar.Parse(date)
	if err != nil {
		return checkinKey{}, false
	}
	user := r.URL.Query().Get("userId")
	if user == "" {
		user = currentUser(r)
	}
	return checkinKey{userID: user, activityID: mux.Vars(r)["id"], date: d.String()}, true
}

func (f *FakeAPI) getCheckin(w http.ResponseWriter, r *http.Request) {
	key, ok := f.checkinKeyFor(r, mux.Vars(r)["date"])
	if !ok {
		http.Error(w, "bad date", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	checked := f.checkins[key]
	f.mu.Unlock()
	if !checked {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"date": key.date})
}

func (f *FakeAPI) createCheckin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	key, ok := f.checkinKeyFor(r, req.Date)
	if !ok {
		http.Error(w, "bad date", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	_, exists := f.activities[key.activityID]
	if exists {
		f.checkins[key] = true
	}
	f.mu.Unlock()
	if !exists {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (f *FakeAPI) deleteCheckin(w http.ResponseWriter, r *http.Request) {
	key, ok := f.checkinKeyFor(r, mux.Vars(r)["date"])
	if !ok {
		http.Error(w, "bad date", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	existed := f.checkins[key]
	delete(f.checkins, key)
	f.mu.Unlock()
	if !existed {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

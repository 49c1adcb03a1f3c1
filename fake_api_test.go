package omekas_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"

	omekas "github.com/st-keller/omekas-client"
	"github.com/st-keller/omekas-client/config"
	"github.com/st-keller/omekas-client/transport"
	"github.com/st-keller/omekas-client/types"
	"github.com/stretchr/testify/require"
)

// fakeAPI is an in-memory stand-in for the repository API.
type fakeAPI struct {
	*httptest.Server

	mu           sync.Mutex
	hits         map[string]int // "METHOD /path" -> count
	items        map[int]json.RawMessage
	itemStatus   int // forced status for GET /items/{id}
	patchStatus  int // forced status for PATCH /items/{id}
	properties   []types.PropertyRecord
	vocabularies []types.VocabularyRecord
	lastQuery    map[string]string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	f := &fakeAPI{
		hits:  make(map[string]int),
		items: make(map[int]json.RawMessage),
		vocabularies: []types.VocabularyRecord{
			{ID: 1, IRI: "https://example.org/api/vocabularies/1", NamespaceURI: "http://purl.org/dc/terms/", Prefix: "dcterms", Label: "Dublin Core", Comment: "Basic resource metadata"},
			{ID: 2, IRI: "https://example.org/api/vocabularies/2", NamespaceURI: "http://xmlns.com/foaf/0.1/", Prefix: "foaf", Label: "Friend of a Friend"},
		},
		properties: []types.PropertyRecord{
			property(1, 1, "dcterms", "title", "Title"),
			property(2, 1, "dcterms", "creator", "Creator"),
			property(3, 1, "dcterms", "subject", "Subject"),
			property(4, 2, "foaf", "name", "name"),
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/items", f.listItems)
	mux.HandleFunc("GET /api/items/{id}", f.getItem)
	mux.HandleFunc("PATCH /api/items/{id}", f.patchItem)
	mux.HandleFunc("GET /api/properties", f.listProperties)
	mux.HandleFunc("GET /api/properties/{id}", f.getProperty)
	mux.HandleFunc("GET /api/vocabularies", f.listVocabularies)
	mux.HandleFunc("GET /api/vocabularies/{id}", f.getVocabulary)

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[r.Method+" "+r.URL.Path]++
		f.lastQuery = make(map[string]string)
		for k := range r.URL.Query() {
			f.lastQuery[k] = r.URL.Query().Get(k)
		}
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func property(id, vocabularyID int, prefix, localName, label string) types.PropertyRecord {
	return types.PropertyRecord{
		IRI:        "https://example.org/api/properties/" + strconv.Itoa(id),
		Type:       "o:Property",
		ID:         id,
		LocalName:  localName,
		Label:      label,
		Term:       prefix + ":" + localName,
		Vocabulary: types.Ref{IRI: "https://example.org/api/vocabularies/" + strconv.Itoa(vocabularyID), ID: vocabularyID},
	}
}

func (f *fakeAPI) addItem(id int, payload string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[id] = json.RawMessage(payload)
}

func (f *fakeAPI) setItemStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.itemStatus = status
}

func (f *fakeAPI) setPatchStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patchStatus = status
}

func (f *fakeAPI) addVocabulary(v types.VocabularyRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vocabularies = append(f.vocabularies, v)
}

func (f *fakeAPI) addProperty(p types.PropertyRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.properties = append(f.properties, p)
}

func (f *fakeAPI) hitCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func (f *fakeAPI) query() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery
}

func (f *fakeAPI) storedItem(id int) json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]any{"errors": map[string]string{"error": "Not found"}})
}

func perPage(r *http.Request, n int) int {
	if p, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && p >= 0 && p < n {
		return p
	}
	return n
}

func (f *fakeAPI) listItems(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]int, 0, len(f.items))
	for id := range f.items {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids[:perPage(r, len(ids))] {
		out = append(out, f.items[id])
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *fakeAPI) getItem(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.itemStatus != 0 {
		writeJSON(w, f.itemStatus, map[string]any{"errors": map[string]string{"error": http.StatusText(f.itemStatus)}})
		return
	}
	id, _ := strconv.Atoi(r.PathValue("id"))
	payload, ok := f.items[id]
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// patchItem stores the body and echoes it back with "o:modified" set, as the server would.
func (f *fakeAPI) patchItem(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.patchStatus != 0 && f.patchStatus != http.StatusOK {
		writeJSON(w, f.patchStatus, map[string]any{"errors": map[string]string{"error": "rejected"}})
		return
	}

	id, _ := strconv.Atoi(r.PathValue("id"))
	body, _ := io.ReadAll(r.Body)
	var payload map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	payload["o:modified"] = map[string]any{"@value": "2026-10-19T12:00:00+00:00", "@type": "http://www.w3.org/2001/XMLSchema#dateTime"}

	data, _ := json.Marshal(payload)
	f.items[id] = data
	writeJSON(w, http.StatusOK, json.RawMessage(data))
}

func (f *fakeAPI) listProperties(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q := r.URL.Query()
	out := make([]types.PropertyRecord, 0)
	for _, p := range f.properties {
		if term := q.Get("term"); term != "" && p.Term != term {
			continue
		}
		if vid := q.Get("vocabulary_id"); vid != "" && strconv.Itoa(p.Vocabulary.ID) != vid {
			continue
		}
		if name := q.Get("local_name"); name != "" && p.LocalName != name {
			continue
		}
		out = append(out, p)
	}
	writeJSON(w, http.StatusOK, out[:perPage(r, len(out))])
}

func (f *fakeAPI) getProperty(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, _ := strconv.Atoi(r.PathValue("id"))
	for _, p := range f.properties {
		if p.ID == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	notFound(w)
}

func (f *fakeAPI) listVocabularies(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q := r.URL.Query()
	out := make([]types.VocabularyRecord, 0)
	for _, v := range f.vocabularies {
		if prefix := q.Get("prefix"); prefix != "" && v.Prefix != prefix {
			continue
		}
		if uri := q.Get("namespace_uri"); uri != "" && v.NamespaceURI != uri {
			continue
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out[:perPage(r, len(out))])
}

func (f *fakeAPI) getVocabulary(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, _ := strconv.Atoi(r.PathValue("id"))
	for _, v := range f.vocabularies {
		if v.ID == id {
			writeJSON(w, http.StatusOK, v)
			return
		}
	}
	notFound(w)
}

func testConfig(endpoint string) config.Config {
	cfg := config.Default()
	cfg.Repository.APIEndpoint = endpoint
	cfg.Repository.APIKeyIdentity = "ident"
	cfg.Repository.APIKeyCredential = "secret"
	return cfg
}

func newTestRepository(t *testing.T, f *fakeAPI) *omekas.Repository {
	t.Helper()
	repo, err := omekas.New(testConfig(f.URL+"/api"),
		omekas.WithTransport(transport.NewHTTPWithClient(f.Client())),
		omekas.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	return repo
}

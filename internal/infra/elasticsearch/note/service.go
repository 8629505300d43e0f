package note

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/rs/zerolog/log"

	"github.com/lloydmeta/notesync/internal/config"
	"github.com/lloydmeta/notesync/internal/domain/note"
	"github.com/lloydmeta/notesync/internal/domain/owner"
	"github.com/lloydmeta/notesync/internal/infra/elasticsearch/common"
)

var NotesyncNotesIndex = ".notesync_notes"

const (
	defaultScrollSize = 500
	defaultScrollTtl  = 1 * time.Minute
)

// EsService is a note.Store backed by a single index. Documents are routed by Owner so
// that every partition lives on one shard.
type EsService struct {
	client     *elasticsearch.Client
	scrollSize uint
	scrollTtl  time.Duration
}

func NewService(client *elasticsearch.Client, settings config.Sync) note.Store {
	service := EsService{
		client:     client,
		scrollSize: settings.ScrollSize,
		scrollTtl:  settings.ScrollTtl,
	}
	if service.scrollSize == 0 {
		service.scrollSize = defaultScrollSize
	}
	if service.scrollTtl == 0 {
		service.scrollTtl = defaultScrollTtl
	}
	return &service
}

func (e *EsService) Get(ctx context.Context, ownerId owner.Id, id note.Id) (*note.Note, error) {
	req := esapi.GetRequest{
		Index:      NotesyncNotesIndex,
		DocumentID: documentId(ownerId, id),
		Routing:    string(ownerId),
	}
	rawResp, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()

	switch rawResp.StatusCode {
	case 200:
		var resp esGetPersistedNote
		if err := json.NewDecoder(rawResp.Body).Decode(&resp); err != nil {
			return nil, common.JsonSerdesErr{Underlying: []error{err}}
		}
		if !resp.Found {
			return nil, note.NotFound{ID: id, Owner: ownerId}
		}
		retrieved := resp.Source.toDomainNote()
		return &retrieved, nil
	case 404:
		return nil, note.NotFound{ID: id, Owner: ownerId}
	default:
		return nil, common.UnexpectedEsStatusError(rawResp)
	}
}

func (e *EsService) ChangedAfter(ctx context.Context, ownerId owner.Id, checkpoint note.Checkpoint) ([]note.Note, error) {
	filters := []common.JsonObjMap{ownerFilter(ownerId)}
	if !checkpoint.IsNever() {
		filters = append(filters, common.JsonObjMap{
			"range": common.JsonObjMap{
				"synchronized": common.JsonObjMap{
					"gt": time.Time(checkpoint),
				},
			},
		})
	}
	body := e.searchBody(filters, []common.JsonObjMap{
		{"synchronized": common.JsonObjMap{"order": "desc"}},
		{"note_id": common.JsonObjMap{"order": "asc"}},
	})
	return e.scanNotes(ctx, ownerId, body)
}

func (e *EsService) Active(ctx context.Context, ownerId owner.Id) ([]note.Note, error) {
	filters := []common.JsonObjMap{
		ownerFilter(ownerId),
		{"term": common.JsonObjMap{"is_deleted": false}},
	}
	body := e.searchBody(filters, []common.JsonObjMap{{"_doc": common.JsonObjMap{"order": "asc"}}})
	return e.scanNotes(ctx, ownerId, body)
}

func (e *EsService) Put(ctx context.Context, n *note.Note) error {
	toPersistBytes, err := json.Marshal(toPersistedNote(n))
	if err != nil {
		return common.JsonSerdesErr{Underlying: []error{err}}
	}
	req := esapi.IndexRequest{
		Index:      NotesyncNotesIndex,
		DocumentID: documentId(n.Owner, n.ID),
		Routing:    string(n.Owner),
		Refresh:    common.RefreshWaitFor,
		Body:       bytes.NewReader(toPersistBytes),
	}
	rawResp, err := req.Do(ctx, e.client)
	if err != nil {
		return common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	if rawResp.IsError() {
		return common.UnexpectedEsStatusError(rawResp)
	}
	return nil
}

func (e *EsService) PutBatch(ctx context.Context, notes []note.Note) error {
	if len(notes) == 0 {
		return nil
	}
	bulkReqBody, err := buildNotesBulkIndexNdJsonBytes(notes)
	if err != nil {
		return err
	}
	bulkReq := esapi.BulkRequest{
		Refresh: common.RefreshWaitFor,
		Body:    bytes.NewReader(bulkReqBody),
	}
	rawResp, err := bulkReq.Do(ctx, e.client)
	if err != nil {
		return common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	if rawResp.IsError() {
		return common.UnexpectedEsStatusError(rawResp)
	}
	var response common.EsBulkResponse
	if err := json.NewDecoder(rawResp.Body).Decode(&response); err != nil {
		return common.JsonSerdesErr{Underlying: []error{err}}
	}
	if failed := response.Failed(); len(failed) > 0 {
		return common.BulkItemsErr{Failed: failed}
	}
	return nil
}

func (e *EsService) DeleteAll(ctx context.Context, ownerId owner.Id) error {
	bodyBytes, err := json.Marshal(common.JsonObjMap{
		"query": common.JsonObjMap{
			"bool": common.JsonObjMap{
				"filter": []common.JsonObjMap{ownerFilter(ownerId)},
			},
		},
	})
	if err != nil {
		return common.JsonSerdesErr{Underlying: []error{err}}
	}
	req := esapi.DeleteByQueryRequest{
		Index:          []string{NotesyncNotesIndex},
		Routing:        []string{string(ownerId)},
		AllowNoIndices: esapi.BoolPtr(true),
		Conflicts:      "proceed",
		Refresh:        esapi.BoolPtr(true),
		Body:           bytes.NewReader(bodyBytes),
	}
	rawResp, err := req.Do(ctx, e.client)
	if err != nil {
		return common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	switch {
	case rawResp.StatusCode == 404:
		return nil
	case rawResp.IsError():
		return common.UnexpectedEsStatusError(rawResp)
	default:
		var resp esDeleteByQueryResponse
		if err := json.NewDecoder(rawResp.Body).Decode(&resp); err != nil {
			return common.JsonSerdesErr{Underlying: []error{err}}
		}
		if len(resp.Failures) > 0 {
			return common.ElasticsearchErr{Underlying: fmt.Errorf("Failed to delete notes of owner [%v]: %v", ownerId, resp.Failures)}
		}
		log.Debug().Str("owner_id", string(ownerId)).Uint("deleted", resp.Deleted).Msg("Deleted notes")
		return nil
	}
}

func (e *EsService) searchBody(filters []common.JsonObjMap, sort []common.JsonObjMap) common.JsonObjMap {
	return common.JsonObjMap{
		"size": e.scrollSize,
		"sort": sort,
		"query": common.JsonObjMap{
			"bool": common.JsonObjMap{
				"filter": filters,
			},
		},
	}
}

func (e *EsService) scanNotes(ctx context.Context, ownerId owner.Id, body common.JsonObjMap) ([]note.Note, error) {
	var notes []note.Note
	err := common.Scan(ctx, e.client, common.ScanRequest{
		Index:     NotesyncNotesIndex,
		Routing:   []string{string(ownerId)},
		Body:      body,
		ScrollTtl: e.scrollTtl,
	}, func(hits []common.Hit) error {
		var errAcc []error
		for _, hit := range hits {
			var persisted persistedNoteData
			if err := json.Unmarshal(hit.Source, &persisted); err != nil {
				errAcc = append(errAcc, err)
			} else {
				notes = append(notes, persisted.toDomainNote())
			}
		}
		if len(errAcc) > 0 {
			return common.JsonSerdesErr{Underlying: errAcc}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func ownerFilter(ownerId owner.Id) common.JsonObjMap {
	return common.JsonObjMap{
		"term": common.JsonObjMap{
			"owner_id": string(ownerId),
		},
	}
}

// Note ids are only unique within an Owner
func documentId(ownerId owner.Id, id note.Id) string {
	return fmt.Sprintf("%s:%s", ownerId, id)
}

func buildNotesBulkIndexNdJsonBytes(notes []note.Note) ([]byte, error) {
	var errAcc []error
	var bytesAcc []byte
	for i := range notes {
		n := &notes[i]
		op := common.BulkOp{
			Index: common.BulkOpData{
				Id:      documentId(n.Owner, n.ID),
				Index:   NotesyncNotesIndex,
				Routing: string(n.Owner),
			},
		}
		opBytes, err := json.Marshal(op)
		if err != nil {
			errAcc = append(errAcc, err)
		}
		docBytes, err := json.Marshal(toPersistedNote(n))
		if err != nil {
			errAcc = append(errAcc, err)
		}
		if len(errAcc) == 0 {
			bytesAcc = append(bytesAcc, opBytes...)
			bytesAcc = append(bytesAcc, "\n"...)
			bytesAcc = append(bytesAcc, docBytes...)
			bytesAcc = append(bytesAcc, "\n"...)
		}
	}
	if len(errAcc) != 0 {
		return nil, common.JsonSerdesErr{Underlying: errAcc}
	} else {
		return bytesAcc, nil
	}
}

// Private persistence doc structures based entirely on basic types for ease of guaranteeing serdes.

type persistedNoteData struct {
	OwnerId      string    `json:"owner_id"`
	NoteId       string    `json:"note_id"`
	Body         string    `json:"body"`
	Url          string    `json:"url"`
	IsDeleted    bool      `json:"is_deleted"`
	Created      time.Time `json:"created"`
	Modified     time.Time `json:"modified"`
	Synchronized time.Time `json:"synchronized"`
}

type esGetPersistedNote struct {
	ID     string            `json:"_id"`
	Found  bool              `json:"found"`
	Source persistedNoteData `json:"_source"`
}

type esDeleteByQueryResponse struct {
	Deleted  uint              `json:"deleted"`
	Failures []json.RawMessage `json:"failures"`
}

func toPersistedNote(n *note.Note) persistedNoteData {
	stored := n.Projected()
	return persistedNoteData{
		OwnerId:      string(stored.Owner),
		NoteId:       string(stored.ID),
		Body:         stored.Body,
		Url:          stored.Url,
		IsDeleted:    stored.IsDeleted,
		Created:      time.Time(stored.Created).UTC(),
		Modified:     time.Time(stored.Modified).UTC(),
		Synchronized: time.Time(stored.Synchronized).UTC(),
	}
}

func (p *persistedNoteData) toDomainNote() note.Note {
	return note.Note{
		ID:           note.Id(p.NoteId),
		Owner:        owner.Id(p.OwnerId),
		Body:         p.Body,
		Url:          p.Url,
		IsDeleted:    p.IsDeleted,
		Created:      note.CreatedAt(p.Created.UTC()),
		Modified:     note.ModifiedAt(p.Modified.UTC()),
		Synchronized: note.Checkpoint(p.Synchronized.UTC()),
	}
}

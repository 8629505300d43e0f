package owner

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/lloydmeta/notesync/internal/domain/owner"
	"github.com/lloydmeta/notesync/internal/infra/elasticsearch/common"
)

var NotesyncOwnersIndex = ".notesync_owners"

const (
	mergedScrollSize = 100
	mergedScrollTtl  = 1 * time.Minute
)

type EsService struct {
	client *elasticsearch.Client
}

func NewService(client *elasticsearch.Client) owner.Store {
	return &EsService{client: client}
}

func (e *EsService) Create(ctx context.Context, o *owner.Owner) error {
	// AuthIds are not document ids so uniqueness can only be checked before writing
	for _, authId := range o.AuthIds {
		if _, err := e.GetByAuthId(ctx, authId); err == nil {
			return owner.AlreadyExists{ID: o.ID}
		} else if _, isNotFound := err.(owner.NotFound); !isNotFound {
			return err
		}
	}
	toPersistBytes, err := json.Marshal(toPersistedOwner(o))
	if err != nil {
		return common.JsonSerdesErr{Underlying: []error{err}}
	}
	req := esapi.CreateRequest{
		Index:      NotesyncOwnersIndex,
		DocumentID: string(o.ID),
		Refresh:    common.RefreshWaitFor,
		Body:       bytes.NewReader(toPersistBytes),
	}
	rawResp, err := req.Do(ctx, e.client)
	if err != nil {
		return common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	switch rawResp.StatusCode {
	case 200, 201:
		return nil
	case 409:
		return owner.AlreadyExists{ID: o.ID}
	default:
		return common.UnexpectedEsStatusError(rawResp)
	}
}

func (e *EsService) Get(ctx context.Context, id owner.Id) (*owner.Owner, error) {
	req := esapi.GetRequest{
		Index:      NotesyncOwnersIndex,
		DocumentID: string(id),
	}
	rawResp, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	switch rawResp.StatusCode {
	case 200:
		var resp esGetPersistedOwner
		if err := json.NewDecoder(rawResp.Body).Decode(&resp); err != nil {
			return nil, common.JsonSerdesErr{Underlying: []error{err}}
		}
		if !resp.Found {
			return nil, owner.NotFound{ID: id}
		}
		retrieved := resp.Source.toDomainOwner(resp.ID)
		return &retrieved, nil
	case 404:
		return nil, owner.NotFound{ID: id}
	default:
		return nil, common.UnexpectedEsStatusError(rawResp)
	}
}

func (e *EsService) GetByAuthId(ctx context.Context, authId owner.AuthId) (*owner.Owner, error) {
	searchBody := common.JsonObjMap{
		"size": 1,
		"query": common.JsonObjMap{
			"bool": common.JsonObjMap{
				"filter": []common.JsonObjMap{
					{"term": common.JsonObjMap{"auth_ids": string(authId)}},
				},
			},
		},
	}
	searchBodyBytes, err := json.Marshal(searchBody)
	if err != nil {
		return nil, common.JsonSerdesErr{Underlying: []error{err}}
	}
	searchReq := esapi.SearchRequest{
		Index:          []string{NotesyncOwnersIndex},
		Body:           bytes.NewReader(searchBodyBytes),
		AllowNoIndices: esapi.BoolPtr(true),
	}
	rawResp, err := searchReq.Do(ctx, e.client)
	if err != nil {
		return nil, common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	switch rawResp.StatusCode {
	case 200:
		var resp esSearchResponse
		if err := json.NewDecoder(rawResp.Body).Decode(&resp); err != nil {
			return nil, common.JsonSerdesErr{Underlying: []error{err}}
		}
		if len(resp.Hits.Hits) == 0 {
			return nil, owner.NotFound{AuthId: authId}
		}
		hit := resp.Hits.Hits[0]
		retrieved := hit.Source.toDomainOwner(hit.ID)
		return &retrieved, nil
	case 404:
		return nil, owner.NotFound{AuthId: authId}
	default:
		return nil, common.UnexpectedEsStatusError(rawResp)
	}
}

func (e *EsService) Update(ctx context.Context, o *owner.Owner) error {
	updateBytes, err := json.Marshal(common.JsonObjMap{"doc": toPersistedOwner(o)})
	if err != nil {
		return common.JsonSerdesErr{Underlying: []error{err}}
	}
	req := esapi.UpdateRequest{
		Index:      NotesyncOwnersIndex,
		DocumentID: string(o.ID),
		Refresh:    common.RefreshWaitFor,
		Body:       bytes.NewReader(updateBytes),
	}
	rawResp, err := req.Do(ctx, e.client)
	if err != nil {
		return common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	switch rawResp.StatusCode {
	case 200:
		return nil
	case 404:
		return owner.NotFound{ID: o.ID}
	default:
		return common.UnexpectedEsStatusError(rawResp)
	}
}

func (e *EsService) Delete(ctx context.Context, id owner.Id) error {
	req := esapi.DeleteRequest{
		Index:      NotesyncOwnersIndex,
		DocumentID: string(id),
		Refresh:    common.RefreshWaitFor,
	}
	rawResp, err := req.Do(ctx, e.client)
	if err != nil {
		return common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	switch rawResp.StatusCode {
	case 200, 404:
		return nil
	default:
		return common.UnexpectedEsStatusError(rawResp)
	}
}

func (e *EsService) Merged(ctx context.Context) ([]owner.Owner, error) {
	var merged []owner.Owner
	err := common.Scan(ctx, e.client, common.ScanRequest{
		Index: NotesyncOwnersIndex,
		Body: common.JsonObjMap{
			"size": mergedScrollSize,
			"sort": []common.JsonObjMap{{"_doc": common.JsonObjMap{"order": "asc"}}},
			"query": common.JsonObjMap{
				"bool": common.JsonObjMap{
					"filter": []common.JsonObjMap{
						{"exists": common.JsonObjMap{"field": "merged_into"}},
					},
				},
			},
		},
		ScrollTtl: mergedScrollTtl,
	}, func(hits []common.Hit) error {
		var errAcc []error
		for _, hit := range hits {
			var persisted persistedOwnerData
			if err := json.Unmarshal(hit.Source, &persisted); err != nil {
				errAcc = append(errAcc, err)
			} else {
				merged = append(merged, persisted.toDomainOwner(hit.ID))
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
	return merged, nil
}

// Private persistence doc structures. Pointers are not omitted so that partial updates
// clear profile data on disconnect.

type persistedOwnerData struct {
	AuthIds    []string  `json:"auth_ids"`
	Email      *string   `json:"email"`
	Name       *string   `json:"name"`
	Provider   *string   `json:"provider"`
	MergedInto *string   `json:"merged_into"`
	CreatedAt  time.Time `json:"created_at"`
}

type esGetPersistedOwner struct {
	ID     string             `json:"_id"`
	Found  bool               `json:"found"`
	Source persistedOwnerData `json:"_source"`
}

type esSearchResponse struct {
	Hits struct {
		Hits []esGetPersistedOwner `json:"hits"`
	} `json:"hits"`
}

func toPersistedOwner(o *owner.Owner) persistedOwnerData {
	authIds := make([]string, 0, len(o.AuthIds))
	for _, a := range o.AuthIds {
		authIds = append(authIds, string(a))
	}
	var mergedInto *string
	if o.MergedInto != nil {
		s := string(*o.MergedInto)
		mergedInto = &s
	}
	return persistedOwnerData{
		AuthIds:    authIds,
		Email:      o.Email,
		Name:       o.Name,
		Provider:   o.Provider,
		MergedInto: mergedInto,
		CreatedAt:  time.Time(o.CreatedAt).UTC(),
	}
}

func (p *persistedOwnerData) toDomainOwner(id string) owner.Owner {
	authIds := make([]owner.AuthId, 0, len(p.AuthIds))
	for _, a := range p.AuthIds {
		authIds = append(authIds, owner.AuthId(a))
	}
	var mergedInto *owner.MergedInto
	if p.MergedInto != nil {
		m := owner.MergedInto(*p.MergedInto)
		mergedInto = &m
	}
	return owner.Owner{
		ID:         owner.Id(id),
		AuthIds:    authIds,
		Email:      p.Email,
		Name:       p.Name,
		Provider:   p.Provider,
		MergedInto: mergedInto,
		CreatedAt:  owner.CreatedAt(p.CreatedAt.UTC()),
	}
}

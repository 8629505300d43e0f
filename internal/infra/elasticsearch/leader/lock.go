package leader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lloydmeta/notesync/internal/domain/leader"
	"github.com/lloydmeta/notesync/internal/infra/elasticsearch/common"
)

var IndexName = ".notesync_leader_locks"

type processId string

/*
 * EsLock keeps the current leader and the time it last acquired the lock in a single
 * document. Acquisitions are compare-and-set writes using the document's sequence number,
 * so two processes racing for a lapsed lease cannot both win.
 *
 * Depends on not having too much drift in machine clock between all servers.
 */
type EsLock struct {
	lockDocId string
	processId processId
	client    *elasticsearch.Client
	leaseFor  time.Duration

	getUTC func() time.Time // for mocking
}

// Ignore: this is for tests
func (e *EsLock) SetUTCGetter(getter func() time.Time) {
	e.getUTC = getter
}

func buildProcessId(id string) processId {
	uniqueId := strings.ReplaceAll(uuid.New().String(), "-", "")
	return processId(fmt.Sprintf("%s-%s", id, uniqueId))
}

// NewLock returns a new leader.Lock for the named lock. Generates a random process id
// for the returned instance.
func NewLock(client *elasticsearch.Client, lockDocId string, leaseFor time.Duration) leader.Lock {
	return &EsLock{
		lockDocId: lockDocId,
		processId: buildProcessId(lockDocId),
		client:    client,
		leaseFor:  leaseFor,
		getUTC: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (e *EsLock) Acquire(ctx context.Context) (bool, error) {
	current, err := e.getLockDoc(ctx)
	if err != nil {
		if _, ok := err.(NotFound); ok {
			return e.claim(ctx, nil)
		}
		return false, err
	}
	if current.Source.LeaderId != e.processId && e.getUTC().Sub(current.Source.At) <= e.leaseFor {
		log.Debug().
			Str("leader_id", string(current.Source.LeaderId)).
			Str("process_id", string(e.processId)).
			Msg("Lock held by another process")
		return false, nil
	}
	return e.claim(ctx, current)
}

func (e *EsLock) getLockDoc(ctx context.Context) (*esLockInfo, error) {
	getReq := esapi.GetRequest{
		Index:      IndexName,
		DocumentID: e.lockDocId,
	}
	rawResp, err := getReq.Do(ctx, e.client)
	if err != nil {
		return nil, common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	switch rawResp.StatusCode {
	case 200:
		var info esLockInfo
		if err := json.NewDecoder(rawResp.Body).Decode(&info); err != nil {
			return nil, common.JsonSerdesErr{Underlying: []error{err}}
		}
		if !info.Found {
			return nil, NotFound{}
		}
		return &info, nil
	case 404:
		return nil, NotFound{}
	default:
		return nil, common.UnexpectedEsStatusError(rawResp)
	}
}

// claim writes this process into the lock doc. With no previous doc it is a create,
// otherwise an index guarded by the previous doc's sequence number.
func (e *EsLock) claim(ctx context.Context, previous *esLockInfo) (bool, error) {
	dataAsBytes, err := json.Marshal(lockData{
		LeaderId: e.processId,
		At:       e.getUTC(),
	})
	if err != nil {
		return false, common.JsonSerdesErr{Underlying: []error{err}}
	}

	var rawResp *esapi.Response
	if previous == nil {
		createReq := esapi.CreateRequest{
			Index:      IndexName,
			DocumentID: e.lockDocId,
			Body:       bytes.NewReader(dataAsBytes),
			Refresh:    common.RefreshWaitFor,
		}
		rawResp, err = createReq.Do(ctx, e.client)
	} else {
		indexReq := esapi.IndexRequest{
			Index:         IndexName,
			DocumentID:    e.lockDocId,
			Body:          bytes.NewReader(dataAsBytes),
			IfPrimaryTerm: esapi.IntPtr(int(previous.PrimaryTerm)),
			IfSeqNo:       esapi.IntPtr(int(previous.SeqNum)),
			Refresh:       common.RefreshWaitFor,
		}
		rawResp, err = indexReq.Do(ctx, e.client)
	}
	if err != nil {
		return false, common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	statusCode := rawResp.StatusCode
	switch {
	case 200 <= statusCode && statusCode <= 299:
		if previous == nil || previous.Source.LeaderId != e.processId {
			log.Info().Str("process_id", string(e.processId)).Str("lock", e.lockDocId).Msg("Acquired leader lock")
		}
		return true, nil
	case statusCode == 409:
		// Someone else got there first
		return false, nil
	default:
		return false, common.UnexpectedEsStatusError(rawResp)
	}
}

type NotFound struct{}

func (n NotFound) Error() string {
	return "Leader lock doc not found"
}

type lockData struct {
	LeaderId processId `json:"leader_id"`
	At       time.Time `json:"at"`
}

type esLockInfo struct {
	ID          string   `json:"_id"`
	Found       bool     `json:"found"`
	SeqNum      uint64   `json:"_seq_no"`
	PrimaryTerm uint64   `json:"_primary_term"`
	Source      lockData `json:"_source"`
}

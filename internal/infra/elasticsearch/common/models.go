// common contains models and helpers that are common to ES operations
package common

import (
	"bytes"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Alias for building ES query bodies
type JsonObjMap map[string]interface{}

// Refresh policy for writes that need to be visible to the next search
var RefreshWaitFor = "wait_for"

type ElasticsearchErr struct {
	Underlying error
}

func (e ElasticsearchErr) Error() string {
	return fmt.Sprintf("Error from Elasticsearch: %v", e.Underlying)
}

func (e ElasticsearchErr) Unwrap() error {
	return e.Underlying
}

type JsonSerdesErr struct {
	Underlying []error
}

func (e JsonSerdesErr) Error() string {
	return fmt.Sprintf("Error working with JSON: %v", e.Underlying)
}

func (e JsonSerdesErr) Unwrap() error {
	if len(e.Underlying) == 1 {
		return e.Underlying[0]
	} else {
		return fmt.Errorf("Multiple JSON serdes errors: [%v]", e.Underlying)
	}
}

// BulkItemsErr is returned when some of the items in a bulk request failed
type BulkItemsErr struct {
	Failed []EsBulkResponseItemInfo
}

func (e BulkItemsErr) Error() string {
	ids := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		ids = append(ids, fmt.Sprintf("%s (%d)", f.ID, f.Status))
	}
	return fmt.Sprintf("Bulk request failed for [%d] items: %v", len(e.Failed), ids)
}

func UnexpectedEsStatusError(rawResp *esapi.Response) ElasticsearchErr {
	var buf bytes.Buffer
	var body string
	if _, err := buf.ReadFrom(rawResp.Body); err == nil {
		body = buf.String()
	}
	return ElasticsearchErr{Underlying: fmt.Errorf("Unexpected status from ES: [%d], body: [%s]", rawResp.StatusCode, body)}
}

type EsBulkResponse struct {
	Took   uint                 `json:"took"`
	Errors bool                 `json:"errors"`
	Items  []EsBulkResponseItem `json:"items"`
}

// Failed returns the info of every item that was not written
func (r *EsBulkResponse) Failed() []EsBulkResponseItemInfo {
	if !r.Errors {
		return nil
	}
	var failed []EsBulkResponseItemInfo
	for _, item := range r.Items {
		if info := item.Info(); !info.IsOk() {
			failed = append(failed, info)
		}
	}
	return failed
}

type EsBulkResponseItemInfo struct {
	Index  string `json:"_index"`
	ID     string `json:"_id"`
	Result string `json:"result"`
	Status uint   `json:"status"`
}

type EsBulkResponseItem struct {
	Index  *EsBulkResponseItemInfo `json:"index"`
	Delete *EsBulkResponseItemInfo `json:"delete"`
	Create *EsBulkResponseItemInfo `json:"create"`
	Update *EsBulkResponseItemInfo `json:"update"`
}

func (i *EsBulkResponseItem) Info() EsBulkResponseItemInfo {
	// It must be one of these.
	if i.Index != nil {
		return *i.Index
	} else if i.Delete != nil {
		return *i.Delete
	} else if i.Create != nil {
		return *i.Create
	} else {
		return *i.Update
	}
}

func (i *EsBulkResponseItemInfo) IsOk() bool {
	return 200 <= i.Status && i.Status <= 299
}

// BulkOp is the action line of a bulk request item
type BulkOp struct {
	Index BulkOpData `json:"index"`
}

type BulkOpData struct {
	Id      string `json:"_id"`
	Index   string `json:"_index"`
	Routing string `json:"routing,omitempty"`
}

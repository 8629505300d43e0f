package common

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/rs/zerolog/log"
)

// A raw search hit
type Hit struct {
	ID     string          `json:"_id"`
	Source json.RawMessage `json:"_source"`
}

// ScanRequest describes a scrolling search
type ScanRequest struct {
	Index     string
	Routing   []string
	Body      JsonObjMap
	ScrollTtl time.Duration
}

// Scan scrolls through every hit matching the request, passing each page to doWithBatch.
// Scrolls are cleared once done, whether or not there was an error.
func Scan(ctx context.Context, client *elasticsearch.Client, req ScanRequest, doWithBatch func(hits []Hit) error) (err error) {
	log.Debug().Str("index", req.Index).Interface("searchBody", req.Body).Msg("Scanning")
	page, err := initSearch(ctx, client, &req)
	if err != nil || page == nil {
		return err
	}
	hits := page.Hits.Hits
	scrollId := page.ScrollId
	scrollIds := []string{scrollId}
	defer func() {
		if scrollErr := clearScroll(ctx, client, scrollIds); scrollErr != nil && err == nil {
			err = scrollErr
		}
	}()

	for len(hits) > 0 {
		if err := doWithBatch(hits); err != nil {
			return err
		}
		next, err := scroll(ctx, client, scrollId, req.ScrollTtl)
		if err != nil {
			return err
		}
		if next == nil {
			break
		}
		hits = next.Hits.Hits
		scrollId = next.ScrollId
		scrollIds = append(scrollIds, scrollId)
	}
	return nil
}

type scrollPage struct {
	Hits struct {
		Hits []Hit `json:"hits"`
	} `json:"hits"`
	ScrollId string `json:"_scroll_id"`
}

func initSearch(ctx context.Context, client *elasticsearch.Client, req *ScanRequest) (*scrollPage, error) {
	searchBodyBytes, err := json.Marshal(req.Body)
	if err != nil {
		return nil, JsonSerdesErr{Underlying: []error{err}}
	}
	searchReq := esapi.SearchRequest{
		Scroll:         req.ScrollTtl,
		Index:          []string{req.Index},
		Routing:        req.Routing,
		AllowNoIndices: esapi.BoolPtr(true),
		Body:           bytes.NewReader(searchBodyBytes),
	}
	rawResp, err := searchReq.Do(ctx, client)
	if err != nil {
		return nil, ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	return processScrollResp(rawResp)
}

func scroll(ctx context.Context, client *elasticsearch.Client, scrollId string, scrollTtl time.Duration) (*scrollPage, error) {
	scrollReq := esapi.ScrollRequest{
		Scroll:   scrollTtl,
		ScrollID: scrollId,
	}
	rawResp, err := scrollReq.Do(ctx, client)
	if err != nil {
		return nil, ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	return processScrollResp(rawResp)
}

func processScrollResp(rawResp *esapi.Response) (*scrollPage, error) {
	switch rawResp.StatusCode {
	case 200:
		var page scrollPage
		if err := json.NewDecoder(rawResp.Body).Decode(&page); err != nil {
			return nil, JsonSerdesErr{Underlying: []error{err}}
		}
		return &page, nil
	case 404:
		// index does not exist yet
		return nil, nil
	default:
		return nil, UnexpectedEsStatusError(rawResp)
	}
}

func clearScroll(ctx context.Context, client *elasticsearch.Client, scrollIds []string) error {
	if len(scrollIds) == 0 {
		return nil
	}
	clearScrollReq := esapi.ClearScrollRequest{ScrollID: scrollIds}
	rawResp, err := clearScrollReq.Do(ctx, client)
	if err != nil {
		return ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	switch rawResp.StatusCode {
	case 200, 404:
		return nil
	default:
		return UnexpectedEsStatusError(rawResp)
	}
}

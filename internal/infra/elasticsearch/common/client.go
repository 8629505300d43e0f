package common

import (
	"context"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.elastic.co/apm/module/apmelasticsearch"

	"github.com/lloydmeta/notesync/internal/config"
)

// NewClient returns a configured elasticsearch.Client based on the given conf, with
// requests traced by APM
func NewClient(conf config.ElasticsearchClient) (*elasticsearch.Client, error) {
	wrappedTransport := apmelasticsearch.WrapRoundTripper(http.DefaultTransport)
	esClientConfig := elasticsearch.Config{Addresses: conf.Addresses, Transport: wrappedTransport}
	if conf.User != nil {
		esClientConfig.Username = conf.User.Name
		esClientConfig.Password = conf.User.Password
	}

	esClient, err := elasticsearch.NewClient(esClientConfig)
	if err != nil {
		return nil, err
	} else {
		return esClient, nil
	}
}

// Ping returns an error if the cluster cannot be reached
func Ping(ctx context.Context, client *elasticsearch.Client) error {
	rawResp, err := esapi.PingRequest{}.Do(ctx, client)
	if err != nil {
		return ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	if rawResp.IsError() {
		return UnexpectedEsStatusError(rawResp)
	}
	return nil
}

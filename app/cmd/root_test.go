package cmd

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lloydmeta/notesync/internal/config"
)

func Test_initConfig(t *testing.T) {
	if wd, err := os.Getwd(); err != nil {
		t.Error(err)
	} else {
		configFile = wd + "/../../config/notesync.example.yaml"
	}
	initConfig()
	assert.EqualValues(t, "passw0rd", appConfig.Elasticsearch.User.Password)
	assert.Equal(t, config.ElasticsearchBackend, appConfig.Storage.Backend)
	assert.Equal(t, 10*time.Second, appConfig.ShutdownTimeout)
	assert.EqualValues(t, 100, appConfig.Sync.WriteChunkSize)
	assert.Equal(t, time.Minute, appConfig.Sync.ScrollTtl)
	assert.Equal(t, "@every 10m", appConfig.Accounts.ReaperSchedule)
	assert.Equal(t, 30*time.Minute, appConfig.Accounts.ReaperLease)
	assert.Nil(t, appConfig.ApmClient)
}

func Test_redactedConfig(t *testing.T) {
	token := "s3cret"
	conf := config.App{
		Elasticsearch: config.ElasticsearchClient{
			User: &config.BasicAuthUser{Name: "elastic", Password: "passw0rd"},
		},
		ApmClient: &config.ApmClient{SecretToken: &token},
	}
	redactedConf := redactedConfig(conf)
	assert.Equal(t, "elastic", redactedConf.Elasticsearch.User.Name)
	assert.Equal(t, redacted, redactedConf.Elasticsearch.User.Password)
	assert.Equal(t, redacted, *redactedConf.ApmClient.SecretToken)
	// input untouched
	assert.Equal(t, "passw0rd", conf.Elasticsearch.User.Password)
	assert.Equal(t, "s3cret", *conf.ApmClient.SecretToken)

	assert.NotPanics(t, func() { redactedConfig(config.App{}) })
}

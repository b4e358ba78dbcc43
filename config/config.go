package config

import (
	"os"

	"github.com/anyproto/any-sync/app"
	"gopkg.in/yaml.v3"

	"github.com/anyproto/review-submit-server/api/apiconfig"
	"github.com/anyproto/review-submit-server/db"
	"github.com/anyproto/review-submit-server/filecache"
	"github.com/anyproto/review-submit-server/store"
	"github.com/anyproto/review-submit-server/submission"
)

const CName = "config"

func NewFromFile(path string) (c *Config, err error) {
	c = &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return
}

type Config struct {
	Mongo      db.Mongo          `yaml:"mongo"`
	S3Store    store.Config      `yaml:"s3Store"`
	FileCache  filecache.Config  `yaml:"fileCache"`
	Submission submission.Config `yaml:"submission"`
	Api        apiconfig.Config  `yaml:"api"`
}

func (c *Config) Init(a *app.App) (err error) {
	return nil
}

func (c *Config) Name() (name string) {
	return CName
}

func (c *Config) GetMongo() db.Mongo {
	return c.Mongo
}

func (c *Config) GetS3Store() store.Config {
	return c.S3Store
}

func (c *Config) GetFileCache() filecache.Config {
	return c.FileCache
}

func (c *Config) GetSubmission() submission.Config {
	return c.Submission
}

func (c *Config) GetApi() apiconfig.Config {
	return c.Api
}

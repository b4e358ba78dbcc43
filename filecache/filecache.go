package filecache

import (
	"context"
	"errors"

	"github.com/anyproto/any-sync/app"
	"github.com/redis/go-redis/v9"
)

const CName = "filecache"

var ErrAbsent = errors.New("file reference absent")

func New() FileCache {
	return new(fileCache)
}

const keyPrefix = "filecache:"

// Resolver is the read-only view the commit protocol depends on. The
// coordinator never writes the cache; ingestion goes through FileCache.Put.
type Resolver interface {
	Resolve(ctx context.Context, documentId string) ([]byte, error)
}

type FileCache interface {
	app.ComponentRunnable
	Resolver
	Put(ctx context.Context, documentId string, data []byte) error
	Forget(ctx context.Context, documentId string) error
}

type fileCache struct {
	conf   Config
	client *redis.Client
}

func (f *fileCache) Init(a *app.App) (err error) {
	f.conf = a.MustComponent("config").(configGetter).GetFileCache()
	opts, err := redis.ParseURL(f.conf.Connect)
	if err != nil {
		return
	}
	f.client = redis.NewClient(opts)
	return
}

func (f *fileCache) Name() (name string) {
	return CName
}

func (f *fileCache) Run(ctx context.Context) (err error) {
	return f.client.Ping(ctx).Err()
}

func (f *fileCache) Resolve(ctx context.Context, documentId string) ([]byte, error) {
	data, err := f.client.Get(ctx, keyPrefix+documentId).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrAbsent
		}
		return nil, err
	}
	return data, nil
}

func (f *fileCache) Put(ctx context.Context, documentId string, data []byte) error {
	return f.client.Set(ctx, keyPrefix+documentId, data, 0).Err()
}

func (f *fileCache) Forget(ctx context.Context, documentId string) error {
	return f.client.Del(ctx, keyPrefix+documentId).Err()
}

func (f *fileCache) Close(ctx context.Context) (err error) {
	return f.client.Close()
}

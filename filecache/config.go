package filecache

type configGetter interface {
	GetFileCache() Config
}

type Config struct {
	// Connect is a redis url, e.g. redis://127.0.0.1:6379/0
	Connect string `yaml:"connect"`
}

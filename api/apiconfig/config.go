package apiconfig

type ConfigGetter interface {
	GetApi() Config
}

type Config struct {
	Addr string `yaml:"addr"`
	// MaxFileSizeMb bounds the PUT /api/files body; 0 means the default.
	MaxFileSizeMb int64 `yaml:"maxFileSizeMb"`
}

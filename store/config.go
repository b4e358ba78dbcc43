package store

type configSource interface {
	GetS3Store() Config
}

type Credentials struct {
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
}

type Config struct {
	Region string `yaml:"region"`
	Bucket string `yaml:"bucket"`
	// Endpoint points the client at an s3-compatible backend; empty means AWS.
	Endpoint    string      `yaml:"endpoint"`
	Credentials Credentials `yaml:"credentials"`
}

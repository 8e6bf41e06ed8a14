package config

type Config interface {
	EnvConfig
	AuthConfig
	TokenConfig
}

type mainConfig struct {
	EnvVars
	Auth
	Token
}

func New() Config {
	return mainConfig{}
}

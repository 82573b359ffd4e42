package credentials

// Credentials is the content of credentials.toml.
type Credentials struct {
	Version   int                           `toml:"version"`
	Providers map[string]ProviderCredential `toml:"providers"`
}

// ProviderCredential is one stored key.
type ProviderCredential struct {
	APIKey string `toml:"api_key"`
}

// provider describes a service folio can hold a key for.
type provider struct {
	Name   string
	EnvVar string
}

var providers = []provider{
	{Name: "openai", EnvVar: "OPENAI_API_KEY"},
	{Name: "qdrant", EnvVar: "QDRANT_API_KEY"},
}

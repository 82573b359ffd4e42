package vectorutils

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"

	"github.com/papercomputeco/folio/pkg/vector"
	"github.com/papercomputeco/folio/pkg/vector/chroma"
	"github.com/papercomputeco/folio/pkg/vector/inmemory"
	"github.com/papercomputeco/folio/pkg/vector/qdrant"
	"github.com/papercomputeco/folio/pkg/vector/sqlitevec"
)

type NewVectorDriverOpts struct {
	// ProviderType is one of "memory", "sqlite", "chroma" or "qdrant".
	ProviderType string

	// TargetURL is the server URL for chroma and qdrant.
	TargetURL string

	// SQLitePath is the database file for the sqlite provider.
	SQLitePath string

	Collection string
	Dimensions uint
	APIKey     string
	Logger     *slog.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "memory", "inmemory", "":
		return inmemory.NewDriver(o.Logger, inmemory.WithDimensions(int(o.Dimensions))), nil
	case "sqlite":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.SQLitePath,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "chroma":
		return chroma.NewDriver(chroma.Config{
			URL:            o.TargetURL,
			CollectionName: o.Collection,
		}, o.Logger)
	case "qdrant":
		host, port, tls, err := splitQdrantURL(o.TargetURL)
		if err != nil {
			return nil, err
		}
		return qdrant.NewDriver(ctx, qdrant.Config{
			Host:           host,
			Port:           port,
			APIKey:         o.APIKey,
			UseTLS:         tls,
			CollectionName: o.Collection,
			Dimensions:     o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}

// splitQdrantURL accepts "host", "host:port" or a URL such as
// "https://host:6334".
func splitQdrantURL(target string) (string, int, bool, error) {
	if target == "" {
		return "", 0, false, fmt.Errorf("qdrant target URL is required")
	}

	useTLS := false
	hostport := target
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		hostport = u.Host
		useTLS = u.Scheme == "https"
	}

	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport, 0, useTLS, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}
	return host, port, useTLS, nil
}

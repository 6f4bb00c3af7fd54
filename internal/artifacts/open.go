package artifacts

import (
	"context"
	"time"

	"renoplan/internal/config"
	"renoplan/internal/logging"
)

// probeTimeout bounds how long setup waits for a remote backend.
var probeTimeout = 5 * time.Second

// Open builds the Store for cfg once, at session setup. Backend failures
// never fail setup: they yield an Unavailable store and an Availability
// explaining why.
func Open(ctx context.Context, cfg config.ArtifactsConfig, workspace string) (Store, Availability) {
	switch cfg.Backend {
	case "sqlite":
		path := config.Resolve(workspace, cfg.DatabasePath)
		s, err := OpenSQL(cfg.Driver, path)
		if err != nil {
			return unavailable("sqlite", err.Error())
		}
		return s, Availability{Backend: "sqlite", Available: true}

	case "s3":
		client, err := NewS3Client(cfg.S3)
		if err != nil {
			return unavailable("s3", err.Error())
		}
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		s, err := OpenS3(probeCtx, client, cfg.S3.Bucket, cfg.S3.Prefix)
		if err != nil {
			return unavailable("s3", err.Error())
		}
		return s, Availability{Backend: "s3", Available: true}

	case "none", "":
		return unavailable("none", "artifact storage disabled")

	default:
		return unavailable(cfg.Backend, "unknown backend")
	}
}

func unavailable(backend, reason string) (Store, Availability) {
	logging.ArtifactsWarn("artifact backend %s unavailable: %s; using local files only", backend, reason)
	return Unavailable{Reason: reason}, Availability{Backend: backend, Reason: reason}
}

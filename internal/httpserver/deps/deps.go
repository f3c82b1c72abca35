package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/planet-nine-app/linkitylink/internal/backup"
	"github.com/planet-nine-app/linkitylink/internal/handoff"
	"github.com/planet-nine-app/linkitylink/internal/index"
	"github.com/planet-nine-app/linkitylink/internal/logger"
	"github.com/planet-nine-app/linkitylink/internal/payment"
	"github.com/planet-nine-app/linkitylink/internal/publish"
	"github.com/planet-nine-app/linkitylink/internal/resolver"
	"github.com/planet-nine-app/linkitylink/internal/sources/catalog"
	"github.com/planet-nine-app/linkitylink/internal/sources/linkimport"
)

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Version         string
	Commit          string
	BuildDate       string
	GoVersion       string
	TimeNow         func() time.Time // for testing, defaults to time.Now
	AllowedHosts    []string         // Host headers allowed on admin endpoints
	AllowedCIDRS    []string         // IPs allowed on admin endpoints
	TrustProxy      bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RateLimitBurst  int              // verify attempts per IP before throttling
	RateLimitPerMin int              // verify attempts refilled per IP per minute

	Catalog   *catalog.Catalog
	Index     *index.ReverseIndex
	Publisher *publish.Service
	Resolver  *resolver.Resolver
	Handoffs  *handoff.Service
	Payments  *payment.Service
	Importer  *linkimport.Importer
	Backup    *backup.Service // nil when no backup sink is configured

	RedisClient  *redis.Client // nil in single-instance mode
	FlushTrigger chan struct{} // manual index flush
}

// Now returns the current time, honoring TimeNow.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}

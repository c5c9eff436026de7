package commands

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"hoep-forecast/internal/config"
	"hoep-forecast/internal/data"
)

// One client per reports site for the life of the process. Every command that
// downloads goes through it, so a year already fetched is served from its cache.
var (
	reportClientsMu sync.Mutex
	reportClients   = map[string]*data.ReportClient{}
)

func reportClient(cfg *config.Config, log zerolog.Logger) *data.ReportClient {
	reportClientsMu.Lock()
	defer reportClientsMu.Unlock()
	c, ok := reportClients[cfg.Data.ReportsURL]
	if !ok {
		c = data.NewReportClient(cfg.Data.ReportsURL, log)
		reportClients[cfg.Data.ReportsURL] = c
	}
	return c
}

// ensureData downloads the data.year report when data.path names that report
// and the file does not exist yet. Any other missing path is left for the loader to report.
func ensureData(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	path := cfg.Data.Path
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if cfg.Data.Year == 0 || filepath.Base(path) != data.ReportFileName(cfg.Data.Year) {
		return nil
	}
	log.Info().Int("year", cfg.Data.Year).Str("path", path).Msg("price report missing, downloading")
	got, err := reportClient(cfg, log).Download(ctx, cfg.Data.Year, filepath.Dir(path))
	if err != nil {
		return err
	}
	cfg.Data.Path = got
	return nil
}

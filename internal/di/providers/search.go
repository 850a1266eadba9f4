package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/circulateapp/circulate-server/internal/config"
	"github.com/circulateapp/circulate-server/internal/logger"
	"github.com/circulateapp/circulate-server/internal/search"
)

// CatalogIndexHandle wraps the catalog search index with shutdown capability.
type CatalogIndexHandle struct {
	*search.CatalogIndex
}

// Shutdown implements do.Shutdownable.
func (h *CatalogIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideCatalogIndex provides the Bleve catalog index and wires it to the
// store so committed book state flows into it.
func ProvideCatalogIndex(i do.Injector) (*CatalogIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	index, err := search.NewCatalogIndex(search.Options{
		DataPath: cfg.Storage.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	storeHandle.SetSearchIndexer(index)

	docCount, _ := index.DocumentCount()
	log.Info("Catalog index initialized", "documents", docCount)

	return &CatalogIndexHandle{CatalogIndex: index}, nil
}

// TriggerCatalogReindexIfNeeded rebuilds the catalog index from the store
// when the index is empty but the catalog is not. This covers a deleted or
// version-bumped index directory. Should be called after all services are
// wired.
func TriggerCatalogReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*CatalogIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	books, err := storeHandle.ListBooks(ctx)
	if err != nil || len(books) == 0 {
		return
	}

	log.Info("Catalog index is empty but books exist, triggering initial reindex",
		"book_count", len(books),
	)

	go func() {
		if err := indexHandle.IndexBooks(books); err != nil {
			log.Error("Initial catalog reindex failed", "error", err)
			return
		}
		count, _ := indexHandle.DocumentCount()
		log.Info("Initial catalog reindex completed", "documents", count)
	}()
}

package local

import (
	"github.com/spf13/afero"

	"github.com/kbukum/voicescribe/logger"
	"github.com/kbukum/voicescribe/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderLocal, func(cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		return NewStorage(afero.NewOsFs(), cfg.BasePath, log)
	})
	storage.RegisterFactory(storage.ProviderMemory, func(cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		return NewStorage(afero.NewMemMapFs(), cfg.BasePath, log)
	})
}

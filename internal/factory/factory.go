package factory

import (
	"fmt"

	"github.com/anime-shed/flag-inspector-go/internal/analyzer"
	"github.com/anime-shed/flag-inspector-go/internal/storage"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for http and https image URLs
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage for local file system
	LocalStorage StorageType = "local"
)

// StorageSettings carries what the storage backends need to be built
type StorageSettings struct {
	MaxImageSize   int64
	MaxImagePixels int64
	HTTP           storage.HTTPOptions
	AzureAccount   string
	AzureKey       string
}

// AnalyzerFactory creates flag analyzers
type AnalyzerFactory interface {
	CreateAnalyzer(spec analyzer.FlagSpec) (analyzer.FlagAnalyzer, error)
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
	Decoder() *storage.Decoder
}

type analyzerFactory struct{}

func NewAnalyzerFactory() AnalyzerFactory {
	return &analyzerFactory{}
}

func (f *analyzerFactory) CreateAnalyzer(spec analyzer.FlagSpec) (analyzer.FlagAnalyzer, error) {
	return analyzer.NewFlagAnalyzer(spec)
}

// storageFactory shares one decoder, and so one size policy, across backends
type storageFactory struct {
	settings StorageSettings
	decoder  *storage.Decoder
}

func NewStorageFactory(settings StorageSettings) StorageFactory {
	return &storageFactory{
		settings: settings,
		decoder:  storage.NewDecoder(settings.MaxImageSize).WithMaxPixels(settings.MaxImagePixels),
	}
}

func (f *storageFactory) Decoder() *storage.Decoder {
	return f.decoder
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(f.decoder, f.settings.HTTP), nil
	case AzureStorage:
		fetcher, err := storage.NewAzureImageFetcher(f.settings.AzureAccount, f.settings.AzureKey, f.decoder)
		if err != nil {
			return nil, fmt.Errorf("azure storage: %w", err)
		}
		return fetcher, nil
	case LocalStorage:
		return storage.NewLocalImageFetcher(f.decoder), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	AnalyzerFactory AnalyzerFactory
	StorageFactory  StorageFactory
}

func NewComponentFactory(settings StorageSettings) *ComponentFactory {
	return &ComponentFactory{
		AnalyzerFactory: NewAnalyzerFactory(),
		StorageFactory:  NewStorageFactory(settings),
	}
}

package ports

import "go.trai.ch/dependo/internal/core/domain"

// ConfigLoader defines the interface for loading rules files.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the rules file at path, or discovers one from cwd when path is empty.
	Load(cwd, path string) (*domain.Rulebook, error)

	// DiscoverConfigPath walks up from cwd and returns the first rules file found.
	DiscoverConfigPath(cwd string) (string, error)
}

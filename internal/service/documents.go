package service

import (
	"fmt"

	"github.com/morozRed/flowdex/internal/config"
	"github.com/morozRed/flowdex/internal/memory"
)

// ReadDocument returns the raw content of a memory document. Missing
// documents read as empty.
func (s *Service) ReadDocument(kind memory.Kind) ([]byte, error) {
	return s.store.Read(kind)
}

// WriteDocument replaces a memory document. A config document is checked
// before it is written.
func (s *Service) WriteDocument(kind memory.Kind, data []byte) error {
	if kind == memory.KindConfig {
		if _, err := config.Parse(data); err != nil {
			return err
		}
	}
	changed, err := s.store.Write(kind, data)
	if err != nil {
		return err
	}
	s.cache.Invalidate(kind)
	s.logger.Debug("document written", "kind", kind, "changed", changed)
	return nil
}

func (s *Service) AppendDocument(kind memory.Kind, data []byte) error {
	if kind == memory.KindConfig || kind == memory.KindGraph {
		return fmt.Errorf("cannot append to %s", kind.FileName())
	}
	if err := s.store.Append(kind, data); err != nil {
		return err
	}
	s.cache.Invalidate(kind)
	return nil
}

// ShowDocument returns the parsed view of a document as served by the cache.
func (s *Service) ShowDocument(kind memory.Kind) (any, error) {
	switch kind {
	case memory.KindSymbols:
		return s.cache.Symbols()
	case memory.KindGraph:
		return s.cache.Graph()
	case memory.KindRules:
		return s.cache.Rules()
	case memory.KindAttempts:
		return s.cache.Attempts()
	case memory.KindDiscovery:
		return s.cache.Discovery()
	case memory.KindArchitecture:
		return s.cache.Architecture()
	case memory.KindConfig:
		return s.cache.Config()
	default:
		return nil, fmt.Errorf("%w: %q", memory.ErrUnknownDocument, kind)
	}
}

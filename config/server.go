package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Server struct {
	Listen   string `yaml:"listen"`
	Encoding string `yaml:"encoding"`
	// decoded json cache size, megabytes
	CacheMB int    `yaml:"cache_mb"`
	LogFile string `yaml:"log_file"`
	// log file rotation, megabytes
	LogMaxSizeMB  int   `yaml:"log_max_size_mb"`
	LogMaxBackups int   `yaml:"log_max_backups"`
	Codec         Codec `yaml:"codec"`
}

func DefaultServer() Server {
	return Server{
		Listen:        ":8000",
		Encoding:      EncodingName(),
		CacheMB:       64,
		LogMaxSizeMB:  16,
		LogMaxBackups: 3,
		Codec:         DefaultCodec(),
	}
}

// LoadServer reads a yaml config over the defaults and applies encoding and codec settings.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrapf(err, "Failed to read config %q", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "Failed to parse config %q", path)
		}
	}
	if err := cfg.Apply(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (s Server) Apply() error {
	if s.Encoding != "" {
		if err := SetEncoding(s.Encoding); err != nil {
			return err
		}
	}
	if s.Codec.TriPerChunk <= 0 || s.Codec.TriPerChunk > 0xffff {
		return errors.Errorf("tri_per_chunk %d out of range", s.Codec.TriPerChunk)
	}
	SetCodec(s.Codec)
	return nil
}

package web

import (
	"context"
	"net/http"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/mogaika/glacier_browser/config"
	"github.com/mogaika/glacier_browser/utils"
	"github.com/mogaika/glacier_browser/vfs"
)

const (
	CACHE_LIFE_WINDOW = 10 * time.Minute
	CACHE_SHARDS      = 16
)

type Server struct {
	dir      vfs.Directory
	cache    *bigcache.BigCache
	registry *prometheus.Registry
	metrics  *metrics
	log      *utils.Logger
}

func NewServer(d vfs.Directory, cacheMB int, log logrus.FieldLogger) (*Server, error) {
	cacheConfig := bigcache.DefaultConfig(CACHE_LIFE_WINDOW)
	cacheConfig.Shards = CACHE_SHARDS
	cacheConfig.HardMaxCacheSize = cacheMB
	cacheConfig.Verbose = false
	cache, err := bigcache.New(context.Background(), cacheConfig)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create json cache")
	}

	registry := prometheus.NewRegistry()
	return &Server{
		dir:      d,
		cache:    cache,
		registry: registry,
		metrics:  newMetrics(registry),
		log:      utils.NewLogger(log),
	}, nil
}

func (s *Server) Close() error {
	return s.cache.Close()
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/json/dir", s.HandlerDir)
	r.HandleFunc("/json/file/{file}", s.HandlerJsonFile)
	r.HandleFunc("/dump/file/{file}", s.HandlerDumpFile)
	r.HandleFunc("/gltf/{file}", s.HandlerGLTF)
	r.HandleFunc("/preview/{file}", s.HandlerPreview)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

func StartServer(cfg config.Server, d vfs.Directory, log logrus.FieldLogger) error {
	s, err := NewServer(d, cfg.CacheMB, log)
	if err != nil {
		return err
	}
	defer s.Close()

	accessLog := log.WithField("component", "access").WriterLevel(logrus.InfoLevel)
	defer accessLog.Close()

	var h http.Handler = s.Router()
	h = handlers.LoggingHandler(accessLog, h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(log), handlers.PrintRecoveryStack(true))(h)

	log.Infof("[web] Starting server %v", cfg.Listen)

	return http.ListenAndServe(cfg.Listen, h)
}

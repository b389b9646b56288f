package main

import (
	"flag"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mogaika/glacier_browser/config"
	"github.com/mogaika/glacier_browser/vfs"
	"github.com/mogaika/glacier_browser/web"

	_ "github.com/mogaika/glacier_browser/pack/aloc"
	_ "github.com/mogaika/glacier_browser/pack/borg"
	_ "github.com/mogaika/glacier_browser/pack/mjba"
	_ "github.com/mogaika/glacier_browser/pack/mrtr"
	_ "github.com/mogaika/glacier_browser/pack/prim"
	_ "github.com/mogaika/glacier_browser/pack/vtxd"
)

func main() {
	var dir, addr, configPath string
	var verbose bool
	flag.StringVar(&dir, "i", "", "Path to folder with extracted resources")
	flag.StringVar(&addr, "a", "", "Address of server, overrides config")
	flag.StringVar(&configPath, "c", "", "Path to yaml config")
	flag.BoolVar(&verbose, "v", false, "Debug logging")
	flag.Parse()

	if dir == "" {
		flag.PrintDefaults()
		return
	}

	cfg, err := config.LoadServer(configPath)
	if err != nil {
		logrus.Fatal(err)
	}
	if addr != "" {
		cfg.Listen = addr
	}

	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	if cfg.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
		}
		defer rotator.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	}

	if err := web.StartServer(cfg, vfs.NewDirectoryDriver(dir), log); err != nil {
		log.Fatal(err)
	}
}

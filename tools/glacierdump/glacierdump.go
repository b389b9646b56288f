package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/glacier_browser/config"
	"github.com/mogaika/glacier_browser/pack"
	"github.com/mogaika/glacier_browser/utils"

	_ "github.com/mogaika/glacier_browser/pack/aloc"
	_ "github.com/mogaika/glacier_browser/pack/borg"
	_ "github.com/mogaika/glacier_browser/pack/mjba"
	_ "github.com/mogaika/glacier_browser/pack/mrtr"
	_ "github.com/mogaika/glacier_browser/pack/prim"
	_ "github.com/mogaika/glacier_browser/pack/vtxd"
)

func dump(inst pack.Instance, format string, depth int) ([]byte, error) {
	switch format {
	case "yaml":
		return yaml.Marshal(inst)
	case "json":
		return json.MarshalIndent(inst, "", "  ")
	case "spew":
		return []byte(utils.SDumpDepth(depth, inst)), nil
	}
	return nil, fmt.Errorf("Unknown dump format '%s'", format)
}

func main() {
	var in, format, encoding string
	var verbose bool
	var depth int
	flag.StringVar(&in, "i", "", "Input file, format is taken from extension")
	flag.StringVar(&format, "f", "yaml", "Output format: yaml, json or spew")
	flag.StringVar(&encoding, "encoding", "", fmt.Sprintf("Name encoding, one of %v", config.ListEncodings()))
	flag.IntVar(&depth, "depth", 0, "Spew nesting limit, 0 is unlimited")
	flag.BoolVar(&verbose, "v", false, "Debug logging")
	flag.Parse()

	if in == "" {
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "Supported formats: %v\n", pack.Formats())
		return
	}
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if encoding != "" {
		if err := config.SetEncoding(encoding); err != nil {
			logrus.Fatal(err)
		}
	}

	data, err := os.ReadFile(in)
	if err != nil {
		logrus.Fatalf("[dump] Cannot read %q: %v", in, err)
	}
	inst, err := pack.CallHandler(in, data, utils.NewLogger(logrus.StandardLogger()))
	if err != nil {
		logrus.Fatalf("[dump] %v", err)
	}
	out, err := dump(inst, format, depth)
	if err != nil {
		logrus.Fatalf("[dump] %v", err)
	}
	os.Stdout.Write(out)
}

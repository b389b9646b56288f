package main

import (
	"bytes"
	"flag"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mogaika/glacier_browser/pack"
	"github.com/mogaika/glacier_browser/utils"

	_ "github.com/mogaika/glacier_browser/pack/aloc"
	_ "github.com/mogaika/glacier_browser/pack/borg"
	_ "github.com/mogaika/glacier_browser/pack/mjba"
	_ "github.com/mogaika/glacier_browser/pack/mrtr"
	_ "github.com/mogaika/glacier_browser/pack/prim"
	_ "github.com/mogaika/glacier_browser/pack/vtxd"
)

// roundTrip decodes in, writes it to out and checks that decoding out
// and encoding again gives the same bytes.
func roundTrip(in, out string, log *utils.Logger) (identical bool, err error) {
	data, err := os.ReadFile(in)
	if err != nil {
		return false, err
	}
	inst, err := pack.CallHandler(in, data, log)
	if err != nil {
		return false, errors.Wrap(err, "decode")
	}

	var encoded []byte
	if err := utils.CommitFile(out, func() ([]byte, error) {
		encoded, err = inst.Marshal(log)
		return encoded, err
	}); err != nil {
		return false, errors.Wrap(err, "encode")
	}

	again, err := pack.CallHandler(out, encoded, log)
	if err != nil {
		return false, errors.Wrap(err, "decode of written file")
	}
	reencoded, err := again.Marshal(log)
	if err != nil {
		return false, errors.Wrap(err, "encode of written file")
	}
	if !bytes.Equal(encoded, reencoded) {
		return false, errors.New("written file does not encode to itself")
	}
	return bytes.Equal(data, encoded), nil
}

func main() {
	var in, out string
	flag.StringVar(&in, "i", "", "Input file")
	flag.StringVar(&out, "o", "", "Output file, same extension as input")
	flag.Parse()

	if in == "" || out == "" {
		flag.PrintDefaults()
		return
	}

	log := utils.NewLogger(logrus.StandardLogger())
	identical, err := roundTrip(in, out, log)
	if err != nil {
		logrus.Fatalf("[roundtrip] %s: %v", in, err)
	}
	if identical {
		logrus.Infof("[roundtrip] %s: byte identical", in)
	} else {
		logrus.Infof("[roundtrip] %s: stable, layout differs from input", in)
	}
}

package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mogaika/glacier_browser/pack/vtxd"
	"github.com/mogaika/glacier_browser/utils"
)

func main() {
	var in, out string
	var scale, submesh int
	flag.StringVar(&in, "i", "", "Input VTXD file")
	flag.StringVar(&out, "o", "", "Output image, format from extension: png, webp or tga")
	flag.IntVar(&scale, "scale", 8, "Pixels per vertex")
	flag.IntVar(&submesh, "submesh", -1, "Sub mesh id, first sub mesh by default")
	flag.Parse()

	if in == "" || out == "" {
		flag.PrintDefaults()
		return
	}

	data, err := os.ReadFile(in)
	if err != nil {
		logrus.Fatalf("[vtxdpreview] Cannot read %q: %v", in, err)
	}
	vd, err := vtxd.NewFromData(data, utils.NewLogger(logrus.StandardLogger()))
	if err != nil {
		logrus.Fatalf("[vtxdpreview] %v", err)
	}

	var sm *vtxd.SubMesh
	if submesh < 0 {
		if len(vd.SubMeshes) != 0 {
			sm = &vd.SubMeshes[0]
		}
	} else {
		sm = vd.SubMesh(uint32(submesh))
	}
	if sm == nil {
		logrus.Fatalf("[vtxdpreview] %q has no sub mesh %d", in, submesh)
	}

	format := vtxd.PreviewFormat(strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), "."))
	if err := utils.CommitFile(out, func() ([]byte, error) {
		var buf bytes.Buffer
		err := sm.Preview(&buf, format, scale)
		return buf.Bytes(), err
	}); err != nil {
		logrus.Fatalf("[vtxdpreview] %v", err)
	}
	logrus.Infof("[vtxdpreview] %d colours of sub mesh %d written to %s", len(sm.Colors), sm.Id, out)
}

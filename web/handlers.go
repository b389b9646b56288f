package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/mogaika/glacier_browser/pack"
	"github.com/mogaika/glacier_browser/pack/borg"
	"github.com/mogaika/glacier_browser/pack/mjba"
	"github.com/mogaika/glacier_browser/pack/mrtr"
	"github.com/mogaika/glacier_browser/pack/prim"
	"github.com/mogaika/glacier_browser/pack/vtxd"
	"github.com/mogaika/glacier_browser/utils"
	"github.com/mogaika/glacier_browser/utils/gltfutils"
	"github.com/mogaika/glacier_browser/vfs"
	"github.com/mogaika/glacier_browser/webutils"

	_ "github.com/mogaika/glacier_browser/pack/aloc"
)

type DirEntry struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	Format    string `json:"format"`
	Supported bool   `json:"supported"`
	Hash      string `json:"hash"`
}

// statusFor maps codec errors onto http statuses.
func statusFor(err error) int {
	if errors.Is(err, errFileNotFound) {
		return http.StatusNotFound
	}
	switch errorKind(err) {
	case "input":
		return http.StatusBadRequest
	case "truncated", "structure", "version":
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) HandlerDir(w http.ResponseWriter, r *http.Request) {
	list, err := vfs.DirectoryEntries(s.dir)
	if err != nil {
		webutils.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	entries := make([]DirEntry, 0, len(list))
	for _, e := range list {
		if e.IsDir {
			continue
		}
		entries = append(entries, DirEntry{
			Name:      e.Name,
			Size:      e.Size,
			Format:    pack.Format(e.Name),
			Supported: pack.HasHandler(e.Name),
			Hash:      utils.GameResourceHash(e.Name).String(),
		})
	}
	webutils.WriteJson(w, entries)
}

var errFileNotFound = errors.New("file not found")

// decode reads and decodes a file, recording the outcome in the metrics.
func (s *Server) decode(name string) (pack.Instance, error) {
	f, err := vfs.DirectoryGetFile(s.dir, name)
	if err != nil {
		return nil, errors.Wrap(errFileNotFound, err.Error())
	}
	data, err := vfs.ReadFile(f)
	if err != nil {
		return nil, err
	}

	format := pack.Format(name)
	start := time.Now()
	inst, err := pack.CallHandler(name, data, s.log)
	s.metrics.duration.WithLabelValues(format).Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.failures.WithLabelValues(format, errorKind(err)).Inc()
		s.log.Warnf("[web] Failed to decode %q: %v", name, err)
		return nil, err
	}
	s.metrics.decoded.WithLabelValues(format).Inc()
	return inst, nil
}

func (s *Server) handleDecode(w http.ResponseWriter, name string) (pack.Instance, bool) {
	if !pack.HasHandler(name) {
		webutils.WriteError(w, http.StatusNotFound, fmt.Errorf("No handler for '%s'", name))
		return nil, false
	}
	inst, err := s.decode(name)
	if err != nil {
		webutils.WriteError(w, statusFor(err), err)
		return nil, false
	}
	return inst, true
}

func (s *Server) cacheKey(f vfs.File, name string) string {
	return fmt.Sprintf("%s:%d:%s", utils.GameResourceHash(name), f.Size(), name)
}

func (s *Server) HandlerJsonFile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["file"]

	f, err := vfs.DirectoryGetFile(s.dir, name)
	if err != nil {
		webutils.WriteError(w, http.StatusNotFound, err)
		return
	}
	key := s.cacheKey(f, name)
	if cached, err := s.cache.Get(key); err == nil {
		s.metrics.cacheHits.Inc()
		webutils.WriteJsonResult(w, cached)
		return
	}

	inst, ok := s.handleDecode(w, name)
	if !ok {
		return
	}
	data, err := json.Marshal(inst)
	if err != nil {
		webutils.WriteError(w, http.StatusInternalServerError, errors.Wrapf(err, "Failed to marshal %q", name))
		return
	}
	if err := s.cache.Set(key, data); err != nil {
		s.log.Warnf("[web] Failed to cache %q: %v", name, err)
	}
	webutils.WriteJsonResult(w, data)
}

func (s *Server) HandlerDumpFile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["file"]
	inst, ok := s.handleDecode(w, name)
	if !ok {
		return
	}
	depth, err := queryInt(r, "depth", 0)
	if err != nil {
		webutils.WriteError(w, http.StatusBadRequest, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	webutils.WriteResult(w, []byte(utils.SDumpDepth(depth, inst)))
}

func (s *Server) exportGLTF(name string, inst pack.Instance, r *http.Request) (*gltf.Document, error) {
	switch v := inst.(type) {
	case *prim.RenderPrimitive:
		return v.ExportGLTFDefault(name)
	case *borg.BoneRig:
		return v.ExportGLTFDefault(name)
	case *mrtr.Rig:
		doc := gltfutils.NewDocument()
		_, err := v.ExportGLTF(doc)
		return doc, err
	case *mjba.Clip:
		rigName := r.URL.Query().Get("rig")
		if rigName == "" {
			return nil, errors.Wrap(utils.ErrUserInputMismatch, "animation export needs a rig parameter")
		}
		rigInst, err := s.decode(rigName)
		if err != nil {
			return nil, err
		}
		rig, ok := rigInst.(*mrtr.Rig)
		if !ok {
			return nil, errors.Wrapf(utils.ErrUserInputMismatch, "'%s' is not a rig", rigName)
		}
		return v.ExportGLTFDefault(name, rig)
	}
	return nil, errors.Wrapf(utils.ErrUserInputMismatch, "'%s' has no gltf export", name)
}

func (s *Server) HandlerGLTF(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["file"]
	inst, ok := s.handleDecode(w, name)
	if !ok {
		return
	}
	doc, err := s.exportGLTF(name, inst, r)
	if err != nil {
		webutils.WriteError(w, statusFor(err), err)
		return
	}
	var buf bytes.Buffer
	if err := gltfutils.ExportBinary(&buf, doc); err != nil {
		webutils.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	webutils.WriteFile(w, &buf, name+".glb")
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(utils.ErrUserInputMismatch, "param '%s' is not integer", key)
	}
	return i, nil
}

// HandlerPreview renders the vertex colours of one VTXD sub mesh,
// ?submesh=ID&format=png|webp|tga&scale=N
func (s *Server) HandlerPreview(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["file"]
	inst, ok := s.handleDecode(w, name)
	if !ok {
		return
	}
	vd, ok := inst.(*vtxd.VertexData)
	if !ok {
		webutils.WriteError(w, http.StatusBadRequest, fmt.Errorf("File %s has no preview", name))
		return
	}

	scale, err := queryInt(r, "scale", 8)
	if err != nil {
		webutils.WriteError(w, http.StatusBadRequest, err)
		return
	}
	var sm *vtxd.SubMesh
	if r.URL.Query().Get("submesh") == "" && len(vd.SubMeshes) != 0 {
		sm = &vd.SubMeshes[0]
	} else {
		id, err := queryInt(r, "submesh", 0)
		if err != nil {
			webutils.WriteError(w, http.StatusBadRequest, err)
			return
		}
		sm = vd.SubMesh(uint32(id))
	}
	if sm == nil {
		webutils.WriteError(w, http.StatusNotFound, fmt.Errorf("File %s has no such sub mesh", name))
		return
	}

	format := vtxd.PreviewFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = vtxd.PreviewPNG
	}
	var buf bytes.Buffer
	if err := sm.Preview(&buf, format, scale); err != nil {
		webutils.WriteError(w, http.StatusBadRequest, err)
		return
	}
	w.Header().Set("Content-Type", "image/"+string(format))
	if _, err := io.Copy(w, &buf); err != nil {
		s.log.Warnf("[web] Failed to write preview: %v", err)
	}
}

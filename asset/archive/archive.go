// Package archive persists compiled light trees as zip files.
//
// Each archive contains three entries:
//   - manifest.bin: a gob-encoded Manifest
//   - nodes.bin: the packed tree nodes in their 64-byte GPU layout
//   - prims.bin: the gob-encoded, reordered primitive list
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/achilleasa/lighttree/asset"
	"github.com/achilleasa/lighttree/asset/compiler/lighttree"
	"github.com/achilleasa/lighttree/log"
	"github.com/google/uuid"
)

const (
	manifestFile = "manifest.bin"
	nodesFile    = "nodes.bin"
	primsFile    = "prims.bin"

	// The archive format version.
	FormatVersion = 1
)

// Manifest describes the contents of a light tree archive.
type Manifest struct {
	Version   int
	BuildID   uuid.UUID
	CreatedAt time.Time

	MaxLightsInLeaf uint32
	NumNodes        int
	NumPrims        int
}

// Write a compiled light tree to a zip file.
func WriteTree(tree *lighttree.Tree, filename string) (*Manifest, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	manifest, err := Write(tree, f)
	if err != nil {
		return nil, err
	}
	return manifest, f.Close()
}

// Write a compiled light tree as a zip archive to w.
func Write(tree *lighttree.Tree, w io.Writer) (*Manifest, error) {
	logger := log.New("archive writer")
	start := time.Now()

	manifest := &Manifest{
		Version:         FormatVersion,
		BuildID:         uuid.New(),
		CreatedAt:       time.Now().UTC(),
		MaxLightsInLeaf: tree.MaxLightsInLeaf(),
		NumNodes:        len(tree.Nodes()),
		NumPrims:        len(tree.Prims()),
	}

	zw := zip.NewWriter(w)
	err := writeEntry(zw, manifestFile, func(ew io.Writer) error {
		return gob.NewEncoder(ew).Encode(manifest)
	})
	if err == nil {
		err = writeEntry(zw, nodesFile, func(ew io.Writer) error {
			return lighttree.EncodeNodes(ew, tree.Nodes())
		})
	}
	if err == nil {
		err = writeEntry(zw, primsFile, func(ew io.Writer) error {
			return gob.NewEncoder(ew).Encode(tree.Prims())
		})
	}
	if err != nil {
		return nil, err
	}
	if err = zw.Close(); err != nil {
		return nil, fmt.Errorf("archive: could not finalize zip file: %s", err.Error())
	}

	logger.Noticef("wrote light tree %s in %d ms", manifest.BuildID, time.Since(start).Nanoseconds()/1e6)
	return manifest, nil
}

func writeEntry(zw *zip.Writer, name string, encode func(io.Writer) error) error {
	ew, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("archive: could not create %s: %s", name, err.Error())
	}
	if err = encode(ew); err != nil {
		return fmt.Errorf("archive: could not write %s: %s", name, err.Error())
	}
	return nil
}

// Read a light tree archive from a local file or a remote URL.
func ReadTree(filename string) (*lighttree.Tree, *Manifest, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, nil, err
	}
	defer res.Close()

	return Read(res)
}

// Read a light tree archive from a resource.
func Read(res *asset.Resource) (*lighttree.Tree, *Manifest, error) {
	logger := log.New("archive reader")
	logger.Noticef(`loading light tree from "%s"`, res.Path())
	start := time.Now()

	// zip package requires a reader implementing ReaderAt. To work around
	// this requirement we read the entire zip file into memory and create
	// a reader from the bytes package that implements ReaderAt
	data, err := io.ReadAll(res)
	if err != nil {
		return nil, nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("archive: %s", err.Error())
	}

	var manifest *Manifest
	var nodes []lighttree.PackedNode
	var prims []lighttree.Primitive
	for _, f := range zr.File {
		var decode func(io.Reader) error
		switch f.Name {
		case manifestFile:
			decode = func(r io.Reader) error {
				manifest = &Manifest{}
				return gob.NewDecoder(r).Decode(manifest)
			}
		case nodesFile:
			decode = func(r io.Reader) (err error) {
				nodes, err = lighttree.DecodeNodes(r)
				return err
			}
		case primsFile:
			decode = func(r io.Reader) error {
				return gob.NewDecoder(r).Decode(&prims)
			}
		default:
			logger.Warningf("unknown file %s in light tree archive; skipping", f.Name)
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, nil, err
		}
		err = decode(rc)
		rc.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("archive: failed to load %s: %s", f.Name, err.Error())
		}
	}

	if manifest == nil {
		return nil, nil, fmt.Errorf("archive: missing %s", manifestFile)
	}
	if manifest.Version != FormatVersion {
		return nil, nil, fmt.Errorf("archive: unsupported format version %d; expected %d", manifest.Version, FormatVersion)
	}
	if len(nodes) != manifest.NumNodes || len(prims) != manifest.NumPrims {
		return nil, nil, fmt.Errorf(
			"archive: manifest lists %d nodes and %d primitives; found %d and %d",
			manifest.NumNodes, manifest.NumPrims, len(nodes), len(prims),
		)
	}

	logger.Noticef("loaded light tree %s in %d ms", manifest.BuildID, time.Since(start).Nanoseconds()/1e6)
	return lighttree.FromNodes(prims, nodes, manifest.MaxLightsInLeaf), manifest, nil
}

package reader

import (
	"fmt"
	"strings"

	"github.com/achilleasa/lighttree/asset"
	"github.com/achilleasa/lighttree/asset/scene"
)

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*scene.Scene, error)
}

// Read scene from file.
func ReadScene(filename string) (*scene.Scene, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return ReadSceneFrom(res)
}

// Read scene from a resource. The reader is selected by the resource
// path extension.
func ReadSceneFrom(res *asset.Resource) (*scene.Scene, error) {
	var reader Reader
	if strings.HasSuffix(res.Path(), ".obj") {
		reader = newWavefrontReader()
	} else {
		return nil, fmt.Errorf("readScene: unsupported file format for %q", res.Path())
	}
	return reader.Read(res)
}

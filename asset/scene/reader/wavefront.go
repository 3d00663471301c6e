package reader

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/lighttree/asset"
	"github.com/achilleasa/lighttree/asset/scene"
	"github.com/achilleasa/lighttree/log"
	"github.com/achilleasa/lighttree/types"
	"github.com/go-gl/mathgl/mgl32"
)

type wavefrontMaterial struct {
	Name string

	// Emissive color and scaler.
	Ke       types.Vec3
	KeScaler float32

	// The faces that emit light.
	Sides scene.EmissionSides

	// True if this material is used by at least one primitive.
	Used bool
}

// Get the emitted radiance for this material.
func (wf *wavefrontMaterial) radiance() types.Vec3 {
	if wf.KeScaler != 0 {
		return wf.Ke.Mul(wf.KeScaler)
	}
	return wf.Ke
}

type wavefrontSceneReader struct {
	logger log.Logger

	// The parsed scene.
	scene *scene.Scene

	// A map of material names to parsed wavefront materials
	matNameToIndex map[string]int

	// Currently selected material.
	curMaterial *wavefrontMaterial

	// Parsed wavefront materials.
	materials []*wavefrontMaterial

	vertexList []types.Vec3

	// An error stack that provides additional error information when
	// scene files include other files (models, mat libs e.t.c)
	errStack []string
}

// Create a new text scene reader.
func newWavefrontReader() *wavefrontSceneReader {
	return &wavefrontSceneReader{
		logger:         log.New("wavefront scene reader"),
		scene:          scene.NewScene(),
		matNameToIndex: make(map[string]int, 0),
		vertexList:     make([]types.Vec3, 0),
		errStack:       make([]string, 0),
	}
}

// Read scene definition.
func (r *wavefrontSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	err := r.parse(sceneRes)
	if err != nil {
		return nil, err
	}

	// If no mesh instances are defined, create instances for each defined mesh
	if len(r.scene.MeshInstances) == 0 {
		r.createDefaultMeshInstances()
	}

	r.processMaterials()

	r.logger.Noticef("parsed scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return r.scene, nil
}

// Copy parsed materials to the scene. Material indices are preserved so
// primitives can reference them directly.
func (r *wavefrontSceneReader) processMaterials() {
	emissive := 0
	for _, wfMat := range r.materials {
		mat := &scene.Material{
			Name:     wfMat.Name,
			Radiance: wfMat.radiance(),
			Sides:    wfMat.Sides,
		}
		r.scene.Materials = append(r.scene.Materials, mat)

		if !wfMat.Used {
			r.logger.Infof("material %q is not used by any primitive", wfMat.Name)
		} else if mat.IsEmissive() {
			emissive++
		}
	}

	r.logger.Infof("found %d emissive materials in use", emissive)
}

// Generate a mesh instance with an identity transformation for each defined mesh.
func (r *wavefrontSceneReader) createDefaultMeshInstances() {
	for meshIndex := range r.scene.Meshes {
		r.scene.MeshInstances = append(r.scene.MeshInstances, &scene.MeshInstance{
			MeshIndex: uint32(meshIndex),
			Transform: types.Ident4(),
		})
	}
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontSceneReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = strings.Trim(
			fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	} else {
		errMsg = strings.Trim(
			fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	}

	return fmt.Errorf("%s", errMsg)
}

// Push a frame to the error stack.
func (r *wavefrontSceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontSceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Create and select a non-emissive default material for surfaces not using one.
func (r *wavefrontSceneReader) defaultMaterial() *wavefrontMaterial {
	matName := ""

	matIndex, exists := r.matNameToIndex[matName]
	if !exists {
		r.materials = append(r.materials, &wavefrontMaterial{Sides: scene.EmitFront})
		matIndex = len(r.materials) - 1
		r.matNameToIndex[matName] = matIndex
	}
	r.curMaterial = r.materials[matIndex]
	return r.curMaterial
}

// Parse wavefront object scene format.
func (r *wavefrontSceneReader) parse(res *asset.Resource) error {
	var lineNum int = 0

	// The main obj file may include (call) several other object files. Each
	// object file contains 1-based indices (when they are positive). By
	// tracking the current vertex offset we can apply it while parsing faces
	// to select the correct coordinates.
	relVertexOffset := len(r.vertexList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call", "mtllib":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, lineTokens[0]))

			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			defer incRes.Close()

			switch lineTokens[0] {
			case "call":
				err = r.parse(incRes)
			case "mtllib":
				err = r.parseMaterials(incRes)
			}

			if err != nil {
				return err
			}
			r.popFrame()
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for 'usemtl'; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matName := lineTokens[1]
			matIndex, exists := r.matNameToIndex[matName]
			if !exists {
				return r.emitError(res.Path(), lineNum, `undefined material with name "%s"`, matName)
			}

			r.curMaterial = r.materials[matIndex]
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.vertexList = append(r.vertexList, v)
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.verifyLastParsedMesh()
			r.scene.Meshes = append(r.scene.Meshes, scene.NewMesh(lineTokens[1]))
		case "f":
			primList, err := r.parseFace(lineTokens, relVertexOffset)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}

			// If no object has been defined create a default one
			if len(r.scene.Meshes) == 0 {
				r.scene.Meshes = append(r.scene.Meshes, scene.NewMesh("default"))
			}

			meshIndex := len(r.scene.Meshes) - 1
			r.scene.Meshes[meshIndex].Primitives = append(r.scene.Meshes[meshIndex].Primitives, primList...)
		case "instance":
			instance, err := r.parseMeshInstance(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.scene.MeshInstances = append(r.scene.MeshInstances, instance)
		case "light":
			light, err := parseLight(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.scene.Lights = append(r.scene.Lights, light)
		case "vn", "vt", "s", "camera_fov", "camera_eye", "camera_look", "camera_up":
			// Shading and camera data do not affect light placement.
		default:
			r.logger.Debugf("[%s: %d] skipping unsupported directive %q", res.Path(), lineNum, lineTokens[0])
		}
	}

	r.verifyLastParsedMesh()
	return scanner.Err()
}

// Drop the last parsed mesh if it contains no primitives.
func (r *wavefrontSceneReader) verifyLastParsedMesh() {
	lastMeshIndex := len(r.scene.Meshes) - 1
	if lastMeshIndex >= 0 && len(r.scene.Meshes[lastMeshIndex].Primitives) == 0 {
		r.logger.Warningf(`dropping mesh "%s" as it contains no polygons`, r.scene.Meshes[lastMeshIndex].Name)
		r.scene.Meshes = r.scene.Meshes[:lastMeshIndex]
	}
}

// Parse mesh instance definition. Definitions use the following format:
// instance mesh_name tX tY tZ yaw pitch roll sX sY sZ
// where:
// - tX, tY, tZ       : translation vector
// - yaw, pitch, roll : rotation angles in degrees
// - sX, sY, sZ	      : scale
func (r *wavefrontSceneReader) parseMeshInstance(lineTokens []string) (*scene.MeshInstance, error) {
	if len(lineTokens) != 11 {
		return nil, fmt.Errorf(`unsupported syntax for "instance"; expected 10 arguments: mesh_name tX tY tZ yaw pitch roll sX sY sZ; got %d`, len(lineTokens)-1)
	}

	meshName := lineTokens[1]
	meshIndex := -1
	for index, mesh := range r.scene.Meshes {
		if mesh.Name == meshName {
			meshIndex = index
			break
		}
	}

	if meshIndex == -1 {
		return nil, fmt.Errorf(`unknown mesh with name "%s"`, meshName)
	}

	args, err := parseFloats(lineTokens[2:])
	if err != nil {
		return nil, err
	}
	translation := types.Vec3{args[0], args[1], args[2]}
	rotation := types.Vec3{mgl32.DegToRad(args[3]), mgl32.DegToRad(args[4]), mgl32.DegToRad(args[5])}
	scale := types.Vec3{args[6], args[7], args[8]}

	// M = T * R * S
	return &scene.MeshInstance{
		MeshIndex: uint32(meshIndex),
		Transform: types.Translate4(translation).Mul4(types.Rotate4(rotation).Mul4(types.Scale4(scale))),
	}, nil
}

// Parse a light definition. The following formats are supported:
// - light point x y z r g b radius
// - light spot x y z dx dy dz r g b radius angle
// - light area x y z nx ny nz ux uy uz r g b sizeU sizeV spread
//
// All angles are specified in degrees.
func parseLight(lineTokens []string) (*scene.Light, error) {
	if len(lineTokens) < 2 {
		return nil, fmt.Errorf(`unsupported syntax for "light"; expected light type`)
	}

	expArgs := map[string]int{"point": 7, "spot": 11, "area": 15}
	lightType := lineTokens[1]
	numArgs, known := expArgs[lightType]
	if !known {
		return nil, fmt.Errorf(`unsupported light type %q; expected one of point, spot or area`, lightType)
	}
	if len(lineTokens)-2 != numArgs {
		return nil, fmt.Errorf(`unsupported syntax for "light %s"; expected %d arguments; got %d`, lightType, numArgs, len(lineTokens)-2)
	}

	args, err := parseFloats(lineTokens[2:])
	if err != nil {
		return nil, err
	}
	vec := func(offset int) types.Vec3 {
		return types.Vec3{args[offset], args[offset+1], args[offset+2]}
	}

	switch lightType {
	case "point":
		return scene.NewPointLight(vec(0), vec(3), args[6]), nil
	case "spot":
		if vec(3).Normalize().IsZero() {
			return nil, fmt.Errorf("spot light direction must not be zero")
		}
		return scene.NewSpotLight(vec(0), vec(3), vec(6), args[9], mgl32.DegToRad(args[10])), nil
	default:
		normal, axisU := vec(3).Normalize(), vec(6).Normalize()
		if normal.IsZero() || axisU.IsZero() || normal.Cross(axisU).Normalize().IsZero() {
			return nil, fmt.Errorf("area light normal and tangent must be non-zero and not parallel")
		}
		return scene.NewAreaLight(vec(0), normal, axisU, vec(9), args[12], args[13], mgl32.DegToRad(args[14])), nil
	}
}

// Parse face definition. Each face definitions consists of 3 arguments,
// one for each vertex. Each one of the vertex arguments is comprised of
// 1, 2 or 3 args separated by a slash character. The following formats are
// supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Only the vertex index is used. Indices start from 1 and may be negative to
// indicate an offset off the end of the vertex list.
//
// This method only works with triangular/quad faces and will return an error if a
// face with more than 4 vertices is encountered.
func (r *wavefrontSceneReader) parseFace(lineTokens []string, relVertexOffset int) ([]*scene.Primitive, error) {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return nil, fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d. Select the triangulation option in your exporter`, len(lineTokens)-1)
	}

	var vertices [4]types.Vec3
	expIndices := 0
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return nil, fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		// Faces must at least define a vertex coord
		if vTokens[0] == "" {
			return nil, fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return nil, fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		vertices[arg] = r.vertexList[vOffset]
	}

	// If no material defined select the default. Also flag the current material
	// as being in use.
	if r.curMaterial == nil {
		r.curMaterial = r.defaultMaterial()
	}
	r.curMaterial.Used = true

	// Assemble vertices into one or two primitives depending on whether we are parsing a triangular or a quad face
	primitives := make([]*scene.Primitive, 0)
	indiceList := [][3]int{{0, 1, 2}}
	if len(lineTokens) == 5 {
		indiceList = append(indiceList, [3]int{0, 2, 3})
	}

	for _, indices := range indiceList {
		prim := &scene.Primitive{
			MaterialIndex: r.matNameToIndex[r.curMaterial.Name],
		}
		for triIndex, selectIndex := range indices {
			prim.Vertices[triIndex] = vertices[selectIndex]
		}
		primitives = append(primitives, prim)
	}

	return primitives, nil
}

// Parse a wavefront material library.
func (r *wavefrontSceneReader) parseMaterials(res *asset.Resource) error {
	var lineNum int = 0
	var err error

	r.logger.Infof(`parsing material library "%s"`, res.Path())

	scanner := bufio.NewScanner(res)

	var curMaterial *wavefrontMaterial = nil
	var matName string = ""

	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "newmtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "newmtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matName = lineTokens[1]
			if _, exists := r.matNameToIndex[matName]; exists {
				return r.emitError(res.Path(), lineNum, `material "%s" already defined`, matName)
			}

			curMaterial = &wavefrontMaterial{
				Name:  matName,
				Sides: scene.EmitFront,
			}
			r.materials = append(r.materials, curMaterial)
			r.matNameToIndex[matName] = len(r.materials) - 1
		default:
			if curMaterial == nil {
				return r.emitError(res.Path(), lineNum, `got "%s" without a "newmtl"`, lineTokens[0])
			}

			switch lineTokens[0] {
			case "include":
				if len(lineTokens) < 2 {
					return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
				}

				baseMaterialIndex, exists := r.matNameToIndex[lineTokens[1]]
				if !exists {
					return r.emitError(res.Path(), lineNum, `could not include unknown material "%s"`, lineTokens[1])
				}

				// Overwrite material but keep the original name
				*curMaterial = *r.materials[baseMaterialIndex]
				curMaterial.Name = matName
				curMaterial.Used = false
			case "Ke":
				curMaterial.Ke, err = parseVec3(lineTokens)
			case "KeScaler":
				curMaterial.KeScaler, err = parseFloat32(lineTokens)
			case "emit_sides":
				curMaterial.Sides, err = parseEmissionSides(lineTokens)
			}

			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		}
	}

	return scanner.Err()
}

// Parse the emitting faces of a material: front, back or both.
func parseEmissionSides(lineTokens []string) (scene.EmissionSides, error) {
	if len(lineTokens) != 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	switch lineTokens[1] {
	case "front":
		return scene.EmitFront, nil
	case "back":
		return scene.EmitBack, nil
	case "both":
		return scene.EmitBoth, nil
	}
	return 0, fmt.Errorf(`unsupported value %q for "%s"; expected one of front, back or both`, lineTokens[1], lineTokens[0])
}

// Given an index for a face coord type calculate the proper offset into the
// coord list. Wavefront format can also use negative indices to reference
// elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int = 0
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a float scalar value.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}

	return float32(val), nil
}

// Parse a list of float values.
func parseFloats(tokens []string) ([]float32, error) {
	out := make([]float32, len(tokens))
	for index, token := range tokens {
		v, err := strconv.ParseFloat(token, 32)
		if err != nil {
			return nil, err
		}
		out[index] = float32(v)
	}
	return out, nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}

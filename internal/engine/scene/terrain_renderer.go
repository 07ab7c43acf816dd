// Package scene renders terrain tiles with OpenGL.
package scene

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/demview/internal/engine/scene/shaders"
	"github.com/Faultbox/demview/internal/engine/shader"
	"github.com/Faultbox/demview/internal/engine/terrain"
)

// tileMesh is one uploaded terrain tile.
type tileMesh struct {
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
	flat       bool
}

// TerrainRenderer draws any number of independently uploaded tiles.
type TerrainRenderer struct {
	program *shader.Program
	tiles   []*tileMesh
}

// NewTerrainRenderer compiles the terrain shader. Requires a current GL context.
func NewTerrainRenderer() (*TerrainRenderer, error) {
	program, err := shader.NewProgram(shaders.TerrainVertexShader, shaders.TerrainFragmentShader,
		"uViewProj", "uCameraPos", "uAmbient", "uLightColor", "uLightDir",
		"uLightIntensity", "uHeightRange", "uFlat", "uWireframe", "uExposure")
	if err != nil {
		return nil, fmt.Errorf("terrain shader: %w", err)
	}
	return &TerrainRenderer{program: program}, nil
}

// Upload copies a finished mesh to the GPU. The mesh is not retained.
func (tr *TerrainRenderer) Upload(name string, mesh *terrain.Mesh) error {
	if mesh.NumVertices() == 0 || len(mesh.Indices) == 0 {
		return fmt.Errorf("tile %s: empty mesh", name)
	}

	vertices := mesh.Interleave()
	t := &tileMesh{
		indexCount: int32(len(mesh.Indices)),
		flat:       mesh.FlatShaded,
	}

	gl.GenVertexArrays(1, &t.vao)
	gl.BindVertexArray(t.vao)

	// VBO
	gl.GenBuffers(1, &t.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, t.vbo)
	vertexSize := int(unsafe.Sizeof(terrain.Vertex{}))
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*vertexSize, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	// Position (location 0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, int32(vertexSize), 0)
	gl.EnableVertexAttribArray(0)

	// Normal (location 1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, int32(vertexSize), 3*4)
	gl.EnableVertexAttribArray(1)

	// TexCoord (location 2)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, int32(vertexSize), 6*4)
	gl.EnableVertexAttribArray(2)

	// PlanePosition (location 3)
	gl.VertexAttribPointerWithOffset(3, 3, gl.FLOAT, false, int32(vertexSize), 8*4)
	gl.EnableVertexAttribArray(3)

	// EBO
	gl.GenBuffers(1, &t.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, t.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, unsafe.Pointer(&mesh.Indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)

	tr.tiles = append(tr.tiles, t)
	return nil
}

// Len returns the number of uploaded tiles.
func (tr *TerrainRenderer) Len() int {
	return len(tr.tiles)
}

// Render draws every tile with the same frame snapshot.
func (tr *TerrainRenderer) Render(frame FrameParams) {
	if len(tr.tiles) == 0 {
		return
	}

	tr.program.Use()
	p := tr.program

	gl.UniformMatrix4fv(p.Uniform("uViewProj"), 1, false, &frame.ViewProj[0])
	gl.Uniform3fv(p.Uniform("uCameraPos"), 1, &frame.CameraPos[0])
	gl.Uniform3fv(p.Uniform("uAmbient"), 1, &frame.Light.Ambient[0])
	gl.Uniform3fv(p.Uniform("uLightColor"), 1, &frame.Light.Color[0])
	gl.Uniform3fv(p.Uniform("uLightDir"), 1, &frame.Light.Direction[0])
	gl.Uniform1f(p.Uniform("uLightIntensity"), frame.Light.Intensity)
	gl.Uniform2f(p.Uniform("uHeightRange"), frame.HeightRange[0], frame.HeightRange[1])
	gl.Uniform1f(p.Uniform("uExposure"), frame.Exposure)
	gl.Uniform1i(p.Uniform("uWireframe"), boolToInt(frame.Wireframe))

	if frame.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		defer gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	for _, t := range tr.tiles {
		gl.Uniform1i(p.Uniform("uFlat"), boolToInt(t.flat))
		gl.BindVertexArray(t.vao)
		gl.DrawElements(gl.TRIANGLES, t.indexCount, gl.UNSIGNED_INT, nil)
	}

	gl.BindVertexArray(0)
}

// Clear releases every uploaded tile.
func (tr *TerrainRenderer) Clear() {
	for _, t := range tr.tiles {
		gl.DeleteVertexArrays(1, &t.vao)
		gl.DeleteBuffers(1, &t.vbo)
		gl.DeleteBuffers(1, &t.ebo)
	}
	tr.tiles = nil
}

// Destroy releases all resources.
func (tr *TerrainRenderer) Destroy() {
	tr.Clear()
	if tr.program != nil {
		tr.program.Delete()
	}
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

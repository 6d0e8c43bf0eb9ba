package opengl

import (
	"fmt"
	"math"
	"strings"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"physics-viewer/core"
	"physics-viewer/scene"
	"physics-viewer/shadow"
)

const vertSrc = `#version 410 core
layout(location = 0) in vec3 aPos;
layout(location = 1) in vec3 aNormal;

uniform mat4 mvp;
uniform mat4 model;
uniform mat4 lightViewProj;

out vec3 vNormal;
out vec4 vLightSpace;

void main() {
    vNormal = mat3(transpose(inverse(model))) * aNormal;
    vLightSpace = lightViewProj * model * vec4(aPos, 1.0);
    gl_Position = mvp * vec4(aPos, 1.0);
}
` + "\x00"

const fragSrc = `#version 410 core
in vec3 vNormal;
in vec4 vLightSpace;

uniform vec3 lightDir;
uniform vec3 lightColor;
uniform vec3 ambientColor;
uniform vec3 albedo;

uniform sampler2DShadow shadowMap;
uniform bool  hasShadows;
uniform bool  receiveShadows;
uniform bool  poisson;
uniform float texelSize;

out vec4 fragColor;

const vec2 disk[8] = vec2[](
    vec2(-0.942, -0.399), vec2( 0.946, -0.769),
    vec2(-0.094, -0.929), vec2( 0.345,  0.294),
    vec2(-0.915,  0.458), vec2(-0.815, -0.879),
    vec2(-0.383,  0.277), vec2( 0.975,  0.756)
);

float calcShadow() {
    vec3 p = vLightSpace.xyz / vLightSpace.w;
    p = p * 0.5 + 0.5;
    if (p.z > 1.0) return 1.0;
    float lit = 0.0;
    if (poisson) {
        for (int i = 0; i < 8; i++) {
            lit += texture(shadowMap, vec3(p.xy + disk[i] * 2.0 * texelSize, p.z - 0.002));
        }
        return lit / 8.0;
    }
    for (int x = -1; x <= 1; x++) {
        for (int y = -1; y <= 1; y++) {
            lit += texture(shadowMap, vec3(p.xy + vec2(float(x), float(y)) * texelSize, p.z - 0.002));
        }
    }
    return lit / 9.0;
}

void main() {
    float diffuse = max(dot(normalize(vNormal), -normalize(lightDir)), 0.0);
    float shadowFactor = (hasShadows && receiveShadows) ? calcShadow() : 1.0;
    fragColor = vec4(albedo * (ambientColor + lightColor * diffuse * shadowFactor), 1.0);
}
` + "\x00"

// depth-only shaders for the shadow map pass
const depthVertSrc = `#version 410 core
layout(location = 0) in vec3 aPos;
uniform mat4 lightMVP;
void main() {
    gl_Position = lightMVP * vec4(aPos, 1.0);
}
` + "\x00"

const depthFragSrc = `#version 410 core
void main() {}
` + "\x00"

// shadowExtent is the orthographic half-extent of the shadow volume around
// the camera's focus.
const shadowExtent = 15.0

var (
	dynamicAlbedo = mgl32.Vec3{0.85, 0.45, 0.2}
	staticAlbedo  = mgl32.Vec3{0.7, 0.7, 0.7}
	heldAlbedo    = mgl32.Vec3{1.0, 0.8, 0.3}
)

// GPUMesh holds the OpenGL buffer objects for an uploaded mesh.
type GPUMesh struct {
	VAO        uint32
	VBO        uint32
	EBO        uint32
	IndexCount int32
	HasIndices bool
}

// Renderer draws a scene's meshes with one directional light over a cleared
// sky colour. Dynamic bodies are tinted so they stand out from the set.
type Renderer struct {
	program uint32

	mvpLoc          int32
	modelLoc        int32
	lightDirLoc     int32
	lightColorLoc   int32
	ambientColorLoc int32
	albedoLoc       int32

	lightViewProjLoc  int32
	hasShadowsLoc     int32
	receiveShadowsLoc int32
	poissonLoc        int32
	texelSizeLoc      int32

	depthProg        uint32
	depthLightMVPLoc int32

	viewportW, viewportH int32

	gpuMeshes map[*scene.Mesh]*GPUMesh
	last      *scene.Scene
}

// NewRenderer initialises OpenGL on the current context.
func NewRenderer() (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	fmt.Printf("OpenGL version: %s\n", version)

	prog, err := newProgram(vertSrc, fragSrc)
	if err != nil {
		return nil, fmt.Errorf("main shader compile: %w", err)
	}

	depthProg, err := newProgram(depthVertSrc, depthFragSrc)
	if err != nil {
		gl.DeleteProgram(prog)
		return nil, fmt.Errorf("shadow shader compile: %w", err)
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	gl.UseProgram(prog)
	gl.Uniform1i(gl.GetUniformLocation(prog, gl.Str("shadowMap\x00")), 1)
	gl.UseProgram(0)

	return &Renderer{
		program:         prog,
		mvpLoc:          gl.GetUniformLocation(prog, gl.Str("mvp\x00")),
		modelLoc:        gl.GetUniformLocation(prog, gl.Str("model\x00")),
		lightDirLoc:     gl.GetUniformLocation(prog, gl.Str("lightDir\x00")),
		lightColorLoc:   gl.GetUniformLocation(prog, gl.Str("lightColor\x00")),
		ambientColorLoc: gl.GetUniformLocation(prog, gl.Str("ambientColor\x00")),
		albedoLoc:       gl.GetUniformLocation(prog, gl.Str("albedo\x00")),

		lightViewProjLoc:  gl.GetUniformLocation(prog, gl.Str("lightViewProj\x00")),
		hasShadowsLoc:     gl.GetUniformLocation(prog, gl.Str("hasShadows\x00")),
		receiveShadowsLoc: gl.GetUniformLocation(prog, gl.Str("receiveShadows\x00")),
		poissonLoc:        gl.GetUniformLocation(prog, gl.Str("poisson\x00")),
		texelSizeLoc:      gl.GetUniformLocation(prog, gl.Str("texelSize\x00")),

		depthProg:        depthProg,
		depthLightMVPLoc: gl.GetUniformLocation(depthProg, gl.Str("lightMVP\x00")),

		gpuMeshes:       make(map[*scene.Mesh]*GPUMesh),
	}, nil
}

// SetViewport resizes the OpenGL viewport.
func (r *Renderer) SetViewport(width, height int) {
	r.viewportW = int32(width)
	r.viewportH = int32(height)
	gl.Viewport(0, 0, int32(width), int32(height))
}

// Render clears to the scene's sky colour and draws every visible mesh from
// the active camera. The first directional generator in gens, if any, has
// its casters drawn into its map first; receivers and self-shadowing casters
// then sample it. held, if non-nil, is highlighted. Switching to a new scene
// releases the buffers uploaded for the previous one.
func (r *Renderer) Render(s *scene.Scene, held *scene.Node, gens []*shadow.Generator) {
	if s != r.last {
		r.releaseAll()
		r.last = s
	}

	sky := core.Color{}
	if s != nil {
		sky = s.Environment.SkyColor
	}
	if s == nil || s.ActiveCamera == nil {
		gl.ClearColor(sky.R, sky.G, sky.B, sky.A)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		return
	}

	gen, sm := shadowSource(gens)
	lightVP := mgl32.Ident4()
	selfShadow := map[*scene.Node]bool{}
	if gen != nil {
		lightVP = lightViewProj(gen.Light.Direction, s.ActiveCamera.Position)
		r.shadowPass(gen, sm, lightVP)
		for _, c := range gen.Casters {
			if c.SelfShadow {
				selfShadow[c.Node] = true
			}
		}
	}

	gl.ClearColor(sky.R, sky.G, sky.B, sky.A)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.lightViewProjLoc, 1, false, &lightVP[0])
	gl.Uniform1i(r.hasShadowsLoc, boolToInt(gen != nil))
	if gen != nil {
		gl.ActiveTexture(gl.TEXTURE1)
		gl.BindTexture(gl.TEXTURE_2D, sm.DepthTex)
		gl.ActiveTexture(gl.TEXTURE0)
		gl.Uniform1i(r.poissonLoc, boolToInt(gen.PoissonSampling))
		gl.Uniform1f(r.texelSizeLoc, 1/float32(sm.Size()))
	}
	lightDir, lightColor := keyLight(s)
	gl.Uniform3f(r.lightDirLoc, lightDir.X(), lightDir.Y(), lightDir.Z())
	gl.Uniform3f(r.lightColorLoc, lightColor.X(), lightColor.Y(), lightColor.Z())
	amb := s.Environment.Ambient
	gl.Uniform3f(r.ambientColorLoc, amb.R, amb.G, amb.B)

	viewProj := s.ActiveCamera.ViewProjectionMatrix()
	s.Root.Traverse(func(n *scene.Node) {
		if n.Mesh == nil || !n.Visible {
			return
		}
		albedo := staticAlbedo
		if dynamic, err := scene.IsDynamic(n); err == nil && dynamic {
			albedo = dynamicAlbedo
		}
		if held != nil {
			if owner, err := scene.BodyOwner(n); err == nil && owner == held {
				albedo = heldAlbedo
			}
		}
		gl.Uniform1i(r.receiveShadowsLoc, boolToInt(n.Mesh.ReceiveShadows || selfShadow[n]))
		r.drawMesh(n.Mesh, viewProj, n.WorldMatrix(), albedo)
	})
	if gen != nil {
		gl.ActiveTexture(gl.TEXTURE1)
		gl.BindTexture(gl.TEXTURE_2D, 0)
		gl.ActiveTexture(gl.TEXTURE0)
	}
}

// shadowSource picks the first live GL map belonging to a directional light.
func shadowSource(gens []*shadow.Generator) (*shadow.Generator, *ShadowMap) {
	for _, g := range gens {
		if g.Light == nil || g.Light.Type != scene.LightDirectional {
			continue
		}
		if sm, ok := g.Map.(*ShadowMap); ok && sm.FBO != 0 {
			return g, sm
		}
	}
	return nil, nil
}

// lightViewProj frames an orthographic volume along dir, centred on focus.
func lightViewProj(dir, focus mgl32.Vec3) mgl32.Mat4 {
	if dir.Len() < 1e-3 {
		dir = mgl32.Vec3{0, -1, 0}
	}
	dir = dir.Normalize()
	up := core.Up
	if math.Abs(float64(dir.Dot(up))) > 0.999 {
		up = mgl32.Vec3{0, 0, 1}
	}
	eye := focus.Sub(dir.Mul(shadowExtent))
	view := mgl32.LookAtV(eye, focus, up)
	proj := mgl32.Ortho(-shadowExtent, shadowExtent, -shadowExtent, shadowExtent, -shadowExtent, shadowExtent*3)
	return proj.Mul4(view)
}

// shadowPass draws the generator's casters into its depth map and restores
// the default framebuffer.
func (r *Renderer) shadowPass(g *shadow.Generator, sm *ShadowMap, lightVP mgl32.Mat4) {
	size := int32(sm.Size())
	gl.BindFramebuffer(gl.FRAMEBUFFER, sm.FBO)
	gl.Viewport(0, 0, size, size)
	gl.Clear(gl.DEPTH_BUFFER_BIT)
	gl.UseProgram(r.depthProg)

	for _, c := range g.Casters {
		n := c.Node
		if n.Mesh == nil || !n.Visible {
			continue
		}
		gpu := r.ensureUploaded(n.Mesh)
		if gpu == nil {
			continue
		}
		mvp := lightVP.Mul4(n.WorldMatrix())
		gl.UniformMatrix4fv(r.depthLightMVPLoc, 1, false, &mvp[0])
		gl.BindVertexArray(gpu.VAO)
		if gpu.HasIndices {
			gl.DrawElements(gl.TRIANGLES, gpu.IndexCount, gl.UNSIGNED_INT, nil)
		} else {
			gl.DrawArrays(gl.TRIANGLES, 0, int32(len(n.Mesh.Vertices)))
		}
		gl.BindVertexArray(0)
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, r.viewportW, r.viewportH)
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// keyLight picks the first directional light, or a light from overhead.
func keyLight(s *scene.Scene) (dir, color mgl32.Vec3) {
	for _, l := range s.Lights {
		if l.Type == scene.LightDirectional {
			c := mgl32.Vec3{l.Color.R, l.Color.G, l.Color.B}.Mul(min(l.Intensity, 1))
			return l.Direction, c
		}
	}
	return mgl32.Vec3{-0.3, -1, -0.2}, mgl32.Vec3{1, 1, 1}
}

func (r *Renderer) drawMesh(mesh *scene.Mesh, viewProj, model mgl32.Mat4, albedo mgl32.Vec3) {
	gpu := r.ensureUploaded(mesh)
	if gpu == nil {
		return
	}
	mvp := viewProj.Mul4(model)
	gl.UniformMatrix4fv(r.mvpLoc, 1, false, &mvp[0])
	gl.UniformMatrix4fv(r.modelLoc, 1, false, &model[0])
	gl.Uniform3f(r.albedoLoc, albedo.X(), albedo.Y(), albedo.Z())

	gl.BindVertexArray(gpu.VAO)
	if gpu.HasIndices {
		gl.DrawElements(gl.TRIANGLES, gpu.IndexCount, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, int32(len(mesh.Vertices)))
	}
	gl.BindVertexArray(0)
}

func (r *Renderer) ensureUploaded(mesh *scene.Mesh) *GPUMesh {
	if gpu, ok := r.gpuMeshes[mesh]; ok {
		return gpu
	}
	if len(mesh.Vertices) == 0 {
		return nil
	}

	stride := int32(unsafe.Sizeof(core.Vertex{}))
	gpu := &GPUMesh{
		IndexCount: int32(len(mesh.Indices)),
		HasIndices: len(mesh.Indices) > 0,
	}

	gl.GenVertexArrays(1, &gpu.VAO)
	gl.GenBuffers(1, &gpu.VBO)
	gl.BindVertexArray(gpu.VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, gpu.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*int(stride), gl.Ptr(mesh.Vertices), gl.STATIC_DRAW)

	var v core.Vertex
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(int(unsafe.Offsetof(v.Position))))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(int(unsafe.Offsetof(v.Normal))))

	if gpu.HasIndices {
		gl.GenBuffers(1, &gpu.EBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gpu.EBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.STATIC_DRAW)
	}
	gl.BindVertexArray(0)

	r.gpuMeshes[mesh] = gpu
	return gpu
}

func (r *Renderer) releaseMesh(mesh *scene.Mesh) {
	gpu, ok := r.gpuMeshes[mesh]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &gpu.VAO)
	gl.DeleteBuffers(1, &gpu.VBO)
	if gpu.HasIndices {
		gl.DeleteBuffers(1, &gpu.EBO)
	}
	delete(r.gpuMeshes, mesh)
}

func (r *Renderer) releaseAll() {
	for mesh := range r.gpuMeshes {
		r.releaseMesh(mesh)
	}
}

// Destroy releases all GPU resources.
func (r *Renderer) Destroy() {
	r.releaseAll()
	r.last = nil
	gl.DeleteProgram(r.program)
	gl.DeleteProgram(r.depthProg)
}

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		return 0, fmt.Errorf("link failed: %v", log)
	}

	gl.DeleteShader(vert)
	gl.DeleteShader(frag)
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		return 0, fmt.Errorf("compile failed: %v", log)
	}
	return shader, nil
}

// package wgpu_backend implements the renderer.Backend contract on WebGPU.
// It owns every GPU resource behind the opaque handles the core passes around:
// meshes, compiled shaders, and render targets are registered here once and
// referenced by ID afterwards.
package wgpu_backend

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/batch"
	"github.com/Carmen-Shannon/prism-go/engine/renderer"
)

// instanceStride is the byte size of one instance transform (4x4 float32).
const instanceStride = 64

// instanceAlign is the dynamic-offset alignment WebGPU requires for storage
// buffer bindings.
const instanceAlign = 256

// PresentMode controls how finished frames reach the display.
type PresentMode int

const (
	// PresentModeUncapped presents immediately without waiting for vblank.
	PresentModeUncapped PresentMode = iota

	// PresentModeVSync waits for vblank, capping the frame rate to the display.
	PresentModeVSync
)

// shaderEntry is one registered render pipeline.
type shaderEntry struct {
	pipeline *wgpu.RenderPipeline
}

// meshEntry is one registered mesh's GPU buffers.
type meshEntry struct {
	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   int
}

// targetEntry is one registered off-screen render target.
type targetEntry struct {
	texture   *wgpu.Texture
	view      *wgpu.TextureView
	depthView *wgpu.TextureView
}

// wgpuBackendImpl is the implementation of the WGPUBackend interface.
type wgpuBackendImpl struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat    *wgpu.TextureFormat
	depthTextureView *wgpu.TextureView
	presentMode          wgpu.PresentMode
	clearColor           wgpu.Color
	forceFallbackAdapter bool
	width, height        int

	// Registered resources, keyed by the opaque handles the core holds.
	nextShader common.ShaderID
	shaders    map[common.ShaderID]*shaderEntry
	nextMesh   common.MeshID
	meshes     map[common.MeshID]*meshEntry
	nextTarget common.TargetID
	targets    map[common.TargetID]*targetEntry

	// One bind group serves every pipeline: binding 0 is the frame uniform
	// (view-projection), binding 1 the instance transform arena addressed by
	// dynamic offset per draw.
	bindGroupLayout *wgpu.BindGroupLayout
	bindGroup       *wgpu.BindGroup
	frameUniform    *wgpu.Buffer
	instanceArena   *wgpu.Buffer
	arenaSize       uint64
	arenaCursor     uint64

	// Frame state for the pass currently being encoded.
	frameEncoder  *wgpu.CommandEncoder
	framePass     *wgpu.RenderPassEncoder
	frameSurface  *wgpu.Texture
	frameView     *wgpu.TextureView
	currentShader common.ShaderID
	pendingClear  map[common.TargetID]bool
}

// WGPUBackend is the renderer.Backend contract plus the resource-registration
// surface callers use to turn raw geometry, WGSL source, and target sizes into
// the opaque handles the core consumes. All methods must be driven from the
// render goroutine.
type WGPUBackend interface {
	renderer.Backend

	// Configure (re)configures the swapchain surface and depth buffer for the
	// given drawable size. Must be called once before the first frame and
	// again whenever the window resizes.
	//
	// Parameters:
	//   - width: drawable width in pixels
	//   - height: drawable height in pixels
	Configure(width, height int)

	// RegisterShader compiles a WGSL module into a render pipeline. The module
	// must export vs_main and fs_main entry points and consume the standard
	// vertex layout (position vec3, normal vec3, uv vec2).
	//
	// Parameters:
	//   - label: debug label for the pipeline
	//   - source: the WGSL source
	//
	// Returns:
	//   - common.ShaderID: the compiled shader handle
	//   - error: a compilation or pipeline-creation failure
	RegisterShader(label, source string) (common.ShaderID, error)

	// RegisterMesh uploads vertex and index data and returns the mesh handle.
	//
	// Parameters:
	//   - label: debug label for the buffers
	//   - vertexData: raw vertex bytes (position, normal, uv interleaved)
	//   - indexData: raw uint32 index bytes
	//   - indexCount: the number of indices
	//
	// Returns:
	//   - common.MeshID: the mesh handle
	//   - error: a buffer-creation failure
	RegisterMesh(label string, vertexData, indexData []byte, indexCount int) (common.MeshID, error)

	// RegisterTarget allocates an off-screen color+depth target, e.g. for a
	// compositing layer or a deferred G-buffer.
	//
	// Parameters:
	//   - label: debug label for the textures
	//   - width, height: target size in pixels
	//
	// Returns:
	//   - common.TargetID: the target handle
	//   - error: a texture-creation failure
	RegisterTarget(label string, width, height int) (common.TargetID, error)

	// ReleaseTarget destroys an off-screen target. The handle becomes stale:
	// later SetRenderTarget/ClearTarget calls for it fail with ErrStaleHandle.
	//
	// Parameters:
	//   - target: the target to release
	ReleaseTarget(target common.TargetID)

	// SetViewProjection uploads the camera matrix consumed by every shader
	// this frame.
	//
	// Parameters:
	//   - m: the combined view-projection matrix (column-major)
	SetViewProjection(m [16]float32)

	// SetPresentMode selects how finished frames reach the display.
	//
	// Parameters:
	//   - mode: PresentModeUncapped or PresentModeVSync
	SetPresentMode(mode PresentMode)
}

// Ensure wgpuBackendImpl implements WGPUBackend interface.
var _ WGPUBackend = &wgpuBackendImpl{}

// NewWGPUBackend creates the WebGPU backend for a window surface. The calling
// goroutine is locked to its OS thread for the life of the backend, which is a
// requirement of the underlying graphics APIs.
//
// Parameters:
//   - surfaceDescriptor: the platform surface from the window layer
//   - options: functional options for present mode, clear color, adapter choice
//
// Returns:
//   - WGPUBackend: the newly created backend
//   - error: an adapter or device acquisition failure
func NewWGPUBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...BackendBuilderOption) (WGPUBackend, error) {
	runtime.LockOSThread()

	b := &wgpuBackendImpl{
		mu:           &sync.Mutex{},
		instance:     wgpu.CreateInstance(nil),
		presentMode:  wgpu.PresentModeImmediate,
		clearColor:   wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
		nextShader:   1,
		shaders:      make(map[common.ShaderID]*shaderEntry),
		nextMesh:     1,
		meshes:       make(map[common.MeshID]*meshEntry),
		nextTarget:   1,
		targets:      make(map[common.TargetID]*targetEntry),
		pendingClear: make(map[common.TargetID]bool),
	}
	for _, option := range options {
		option(b)
	}

	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("requesting adapter: %w", err)
	}
	b.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Render Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("requesting device: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()

	return b, nil
}

func (b *wgpuBackendImpl) Configure(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.width, b.height = width, height

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	depthView, err := b.createDepthView("Surface Depth Texture", width, height)
	if err != nil {
		panic(err)
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
	}
	b.depthTextureView = depthView

	if b.bindGroupLayout == nil {
		b.initFrameBindings()
	}
}

// initFrameBindings creates the frame uniform, the instance arena, and the
// bind group shared by every pipeline. Callers must hold b.mu.
func (b *wgpuBackendImpl) initFrameBindings() {
	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Frame Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: 64,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeReadOnlyStorage,
					HasDynamicOffset: true,
					MinBindingSize:   instanceStride,
				},
			},
		},
	})
	if err != nil {
		panic(err)
	}
	b.bindGroupLayout = layout

	uniform, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Frame Uniform Buffer",
		Size:  64,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	b.frameUniform = uniform

	b.arenaSize = 1 << 20 // 1 MiB of instance transforms to start
	b.growArena(b.arenaSize)
}

// growArena (re)allocates the instance arena and rebuilds the bind group.
// Callers must hold b.mu.
func (b *wgpuBackendImpl) growArena(size uint64) {
	arena, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Instance Arena",
		Size:  size,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	if b.instanceArena != nil {
		b.instanceArena.Release()
	}
	b.instanceArena = arena
	b.arenaSize = size

	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Frame Bind Group",
		Layout: b.bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: b.frameUniform, Offset: 0, Size: 64},
			{Binding: 1, Buffer: b.instanceArena, Offset: 0, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		panic(err)
	}
	b.bindGroup = group
}

// createDepthView allocates a depth texture sized to a color attachment.
// Callers must hold b.mu.
func (b *wgpuBackendImpl) createDepthView(label string, width, height int) (*wgpu.TextureView, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, err
	}
	return tex.CreateView(nil)
}

func (b *wgpuBackendImpl) RegisterShader(label, source string) (common.ShaderID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surfaceFormat == nil {
		return 0, errors.New("wgpu_backend: Configure must run before RegisterShader")
	}

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("compiling %s: %w", label, err)
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label + " Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.bindGroupLayout},
	})
	if err != nil {
		return 0, err
	}

	// position vec3f @0, normal vec3f @1, uv vec2f @2, interleaved.
	vertexLayout := wgpu.VertexBufferLayout{
		ArrayStride: 32,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
		},
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{vertexLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    *b.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("creating pipeline %s: %w", label, err)
	}

	id := b.nextShader
	b.nextShader++
	b.shaders[id] = &shaderEntry{pipeline: created}
	return id, nil
}

func (b *wgpuBackendImpl) RegisterMesh(label string, vertexData, indexData []byte, indexCount int) (common.MeshID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := &meshEntry{indexCount: indexCount}

	if len(vertexData) > 0 {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label + " Vertex Buffer",
			Size:  uint64(len(vertexData)),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return 0, err
		}
		b.queue.WriteBuffer(buf, 0, vertexData)
		entry.vertexBuffer = buf
	}
	if len(indexData) > 0 {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label + " Index Buffer",
			Size:  uint64(len(indexData)),
			Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return 0, err
		}
		b.queue.WriteBuffer(buf, 0, indexData)
		entry.indexBuffer = buf
	}

	id := b.nextMesh
	b.nextMesh++
	b.meshes[id] = entry
	return id, nil
}

func (b *wgpuBackendImpl) RegisterTarget(label string, width, height int) (common.TargetID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surfaceFormat == nil {
		return 0, errors.New("wgpu_backend: Configure must run before RegisterTarget")
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        *b.surfaceFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return 0, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return 0, err
	}
	depthView, err := b.createDepthView(label+" Depth", width, height)
	if err != nil {
		view.Release()
		tex.Release()
		return 0, err
	}

	id := b.nextTarget
	b.nextTarget++
	b.targets[id] = &targetEntry{texture: tex, view: view, depthView: depthView}
	return id, nil
}

func (b *wgpuBackendImpl) ReleaseTarget(target common.TargetID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.targets[target]
	if !ok {
		return
	}
	entry.view.Release()
	entry.texture.Release()
	delete(b.targets, target)
}

func (b *wgpuBackendImpl) SetViewProjection(m [16]float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue.WriteBuffer(b.frameUniform, 0, common.SliceToBytes(m[:]))
}

func (b *wgpuBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuBackendImpl) SetRenderTarget(target common.TargetID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	view, depthView, err := b.targetViews(target)
	if err != nil {
		return err
	}
	if err := b.ensureEncoder(); err != nil {
		return err
	}
	b.endPass()

	loadOp := wgpu.LoadOpLoad
	if b.pendingClear[target] {
		loadOp = wgpu.LoadOpClear
		delete(b.pendingClear, target)
	}

	b.framePass = b.frameEncoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     loadOp,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: b.clearColor,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            depthView,
			DepthLoadOp:     loadOp,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})
	b.currentShader = 0
	return nil
}

func (b *wgpuBackendImpl) ClearTarget(target common.TargetID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, _, err := b.targetViews(target); err != nil {
		return err
	}
	// The clear happens when the next pass opens on this target; clearing an
	// untouched target costs nothing.
	b.pendingClear[target] = true
	return nil
}

func (b *wgpuBackendImpl) BindShader(shader common.ShaderID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.shaders[shader]; !ok {
		return fmt.Errorf("shader %d: %w", shader, renderer.ErrStaleHandle)
	}
	b.currentShader = shader
	return nil
}

func (b *wgpuBackendImpl) SubmitDrawBatch(key batch.Key, transforms [][16]float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return errors.New("wgpu_backend: SubmitDrawBatch outside a render pass")
	}
	shader, ok := b.shaders[b.currentShader]
	if !ok {
		return fmt.Errorf("shader %d: %w", b.currentShader, renderer.ErrStaleHandle)
	}
	mesh, ok := b.meshes[key.Mesh]
	if !ok {
		return fmt.Errorf("mesh %d: %w", key.Mesh, renderer.ErrStaleHandle)
	}
	if len(transforms) == 0 {
		return nil
	}

	size := uint64(len(transforms)) * instanceStride
	if b.arenaCursor+size > b.arenaSize {
		// Arena exhausted mid-frame; draws already encoded reference the old
		// buffer through the previous bind group, which stays alive until the
		// submission completes.
		next := b.arenaSize * 2
		for b.arenaCursor+size > next {
			next *= 2
		}
		b.growArena(next)
		b.arenaCursor = 0
	}

	offset := b.arenaCursor
	b.queue.WriteBuffer(b.instanceArena, offset, common.SliceToBytes(transforms))
	b.arenaCursor = align(offset+size, instanceAlign)

	b.framePass.SetPipeline(shader.pipeline)
	b.framePass.SetBindGroup(0, b.bindGroup, []uint32{uint32(offset)})
	if mesh.vertexBuffer != nil {
		b.framePass.SetVertexBuffer(0, mesh.vertexBuffer, 0, wgpu.WholeSize)
	}
	if mesh.indexBuffer != nil {
		b.framePass.SetIndexBuffer(mesh.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		b.framePass.DrawIndexed(uint32(mesh.indexCount), uint32(len(transforms)), 0, 0, 0)
	}
	return nil
}

func (b *wgpuBackendImpl) Present() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.endPass()

	if b.frameEncoder != nil {
		commandBuffer, err := b.frameEncoder.Finish(nil)
		if err == nil {
			b.queue.Submit(commandBuffer)
			commandBuffer.Release()
		}
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}

	if b.frameSurface != nil {
		b.surface.Present()
		b.frameView.Release()
		b.frameView = nil
		b.frameSurface.Release()
		b.frameSurface = nil
	}

	b.arenaCursor = 0
	clear(b.pendingClear)
	return nil
}

// targetViews resolves a target handle to its color and depth views, lazily
// acquiring the swapchain texture for the default target. Callers must hold
// b.mu.
func (b *wgpuBackendImpl) targetViews(target common.TargetID) (*wgpu.TextureView, *wgpu.TextureView, error) {
	if target == common.DefaultTarget {
		if b.frameView == nil {
			surfaceTexture, err := b.surface.GetCurrentTexture()
			if err != nil {
				return nil, nil, fmt.Errorf("acquiring swapchain texture: %w", err)
			}
			view, err := surfaceTexture.CreateView(nil)
			if err != nil {
				surfaceTexture.Release()
				return nil, nil, err
			}
			b.frameSurface = surfaceTexture
			b.frameView = view
		}
		return b.frameView, b.depthTextureView, nil
	}

	entry, ok := b.targets[target]
	if !ok {
		return nil, nil, fmt.Errorf("target %d: %w", target, renderer.ErrStaleHandle)
	}
	return entry.view, entry.depthView, nil
}

// ensureEncoder lazily creates the frame's command encoder. Callers must hold
// b.mu.
func (b *wgpuBackendImpl) ensureEncoder() error {
	if b.frameEncoder != nil {
		return nil
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	b.frameEncoder = encoder
	return nil
}

// endPass ends the open render pass, if any. Callers must hold b.mu.
func (b *wgpuBackendImpl) endPass() {
	if b.framePass != nil {
		b.framePass.End()
		b.framePass = nil
	}
}

// align rounds n up to the next multiple of a.
func align(n, a uint64) uint64 {
	return (n + a - 1) / a * a
}

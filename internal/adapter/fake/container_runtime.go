// Package fake provides in-memory implementations of the deploy ports for
// tests. Every fake records its calls and exposes per-method error hooks so
// tests can inject failures at any point of a run.
package fake

import (
	"context"
	"fmt"
	"sync"

	"skiff/internal/deploy"
)

var _ deploy.ContainerRuntime = (*ContainerRuntime)(nil)

type containerState struct {
	Config  deploy.RunConfig
	Running bool
}

// ContainerRuntime is an in-memory implementation of deploy.ContainerRuntime.
type ContainerRuntime struct {
	CallRecorder
	mu         sync.Mutex
	containers map[string]*containerState
	images     map[string]bool

	ListContainersErr  func(ctx context.Context) error
	ListImagesErr      func(ctx context.Context) error
	StopContainerErr   func(ctx context.Context, name string) error
	RemoveContainerErr func(ctx context.Context, name string) error
	RemoveImageErr     func(ctx context.Context, name string) error
	BuildImageErr      func(ctx context.Context, buildPath, tag string) error
	RunContainerErr    func(ctx context.Context, cfg deploy.RunConfig) error
}

// NewContainerRuntime creates an empty ContainerRuntime.
func NewContainerRuntime() *ContainerRuntime {
	return &ContainerRuntime{
		containers: make(map[string]*containerState),
		images:     make(map[string]bool),
	}
}

// SeedContainer installs a pre-existing container, as if left behind by an
// earlier run.
func (r *ContainerRuntime) SeedContainer(name string, running bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.containers[name] = &containerState{Running: running}
}

// SeedImage installs a pre-existing image tag.
func (r *ContainerRuntime) SeedImage(tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[tag] = true
}

func (r *ContainerRuntime) ListContainers(ctx context.Context) ([]deploy.ContainerInfo, error) {
	r.record("ListContainers")
	if r.ListContainersErr != nil {
		if err := r.ListContainersErr(ctx); err != nil {
			return nil, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []deploy.ContainerInfo
	for name, cs := range r.containers {
		out = append(out, deploy.ContainerInfo{Name: name, Running: cs.Running})
	}
	return out, nil
}

func (r *ContainerRuntime) ListImages(ctx context.Context) ([]string, error) {
	r.record("ListImages")
	if r.ListImagesErr != nil {
		if err := r.ListImagesErr(ctx); err != nil {
			return nil, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for tag := range r.images {
		out = append(out, tag)
	}
	return out, nil
}

func (r *ContainerRuntime) StopContainer(ctx context.Context, name string) error {
	r.record("StopContainer", name)
	if r.StopContainerErr != nil {
		if err := r.StopContainerErr(ctx, name); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cs, ok := r.containers[name]
	if !ok {
		return fmt.Errorf("container %q not found", name)
	}
	cs.Running = false
	return nil
}

func (r *ContainerRuntime) RemoveContainer(ctx context.Context, name string) error {
	r.record("RemoveContainer", name)
	if r.RemoveContainerErr != nil {
		if err := r.RemoveContainerErr(ctx, name); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.containers[name]; !ok {
		return fmt.Errorf("container %q not found", name)
	}
	delete(r.containers, name)
	return nil
}

func (r *ContainerRuntime) RemoveImage(ctx context.Context, name string) error {
	r.record("RemoveImage", name)
	if r.RemoveImageErr != nil {
		if err := r.RemoveImageErr(ctx, name); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.images[name] {
		return fmt.Errorf("image %q not found", name)
	}
	delete(r.images, name)
	return nil
}

func (r *ContainerRuntime) BuildImage(ctx context.Context, buildPath, tag string) error {
	r.record("BuildImage", buildPath, tag)
	if r.BuildImageErr != nil {
		if err := r.BuildImageErr(ctx, buildPath, tag); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[tag] = true
	return nil
}

func (r *ContainerRuntime) RunContainer(ctx context.Context, cfg deploy.RunConfig) error {
	r.record("RunContainer", cfg)
	if r.RunContainerErr != nil {
		if err := r.RunContainerErr(ctx, cfg); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.images[cfg.Image] {
		return fmt.Errorf("image %q not found", cfg.Image)
	}
	if _, ok := r.containers[cfg.Name]; ok {
		return fmt.Errorf("container %q already exists", cfg.Name)
	}
	r.containers[cfg.Name] = &containerState{Config: cfg, Running: true}
	return nil
}

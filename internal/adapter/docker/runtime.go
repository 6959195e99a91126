// Package docker adapts the deploy ports to the local Docker daemon via
// the Engine API. It backs local-mode runs, where no remote host or proxy
// is involved.
package docker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/moby/go-archive"

	"skiff/internal/deploy"
)

var _ deploy.ContainerRuntime = (*Runtime)(nil)

// Runtime implements deploy.ContainerRuntime using the Docker Engine API.
type Runtime struct {
	cli *client.Client
}

// NewRuntime creates a Runtime with a new Docker client from the environment.
func NewRuntime() (*Runtime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &Runtime{cli: cli}, nil
}

// NewRuntimeFromClient wraps an existing Docker client.
func NewRuntimeFromClient(cli *client.Client) *Runtime {
	return &Runtime{cli: cli}
}

func (r *Runtime) ListContainers(ctx context.Context) ([]deploy.ContainerInfo, error) {
	list, err := r.cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	var infos []deploy.ContainerInfo
	for _, c := range list {
		if len(c.Names) == 0 {
			continue
		}
		infos = append(infos, deploy.ContainerInfo{
			Name:    strings.TrimPrefix(c.Names[0], "/"),
			Running: c.State == container.StateRunning,
		})
	}
	return infos, nil
}

func (r *Runtime) ListImages(ctx context.Context) ([]string, error) {
	list, err := r.cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	var tags []string
	for _, img := range list {
		for _, tag := range img.RepoTags {
			if strings.Contains(tag, "<none>") {
				continue
			}
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

func (r *Runtime) StopContainer(ctx context.Context, name string) error {
	if err := r.cli.ContainerStop(ctx, name, container.StopOptions{}); err != nil {
		return fmt.Errorf("stop container %q: %w", name, err)
	}
	return nil
}

func (r *Runtime) RemoveContainer(ctx context.Context, name string) error {
	if err := r.cli.ContainerRemove(ctx, name, container.RemoveOptions{}); err != nil {
		return fmt.Errorf("remove container %q: %w", name, err)
	}
	return nil
}

func (r *Runtime) RemoveImage(ctx context.Context, tag string) error {
	if _, err := r.cli.ImageRemove(ctx, tag, image.RemoveOptions{}); err != nil {
		return fmt.Errorf("remove image %q: %w", tag, err)
	}
	return nil
}

func (r *Runtime) BuildImage(ctx context.Context, buildPath, tag string) error {
	buildCtx, err := archive.TarWithOptions(buildPath, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("tar build context %s: %w", buildPath, err)
	}
	defer buildCtx.Close()

	resp, err := r.cli.ImageBuild(ctx, buildCtx, build.ImageBuildOptions{
		Tags:       []string{tag},
		Dockerfile: deploy.BuildDescriptor,
		Remove:     true,
	})
	if err != nil {
		return fmt.Errorf("build image %q: %w", tag, err)
	}
	defer resp.Body.Close()

	// The daemon streams progress as JSON messages and reports build
	// failures inside the stream, under a 200 response. The build is not
	// done until the body is drained.
	dec := json.NewDecoder(resp.Body)
	for {
		var msg struct {
			Stream string `json:"stream"`
			Error  string `json:"error"`
		}
		if err := dec.Decode(&msg); err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("build image %q: decode progress: %w", tag, err)
		}
		if msg.Stream != "" {
			slog.Debug("image build", "output", strings.TrimRight(msg.Stream, "\n"))
		}
		if msg.Error != "" {
			return fmt.Errorf("build image %q: %s", tag, msg.Error)
		}
	}
	return nil
}

func (r *Runtime) RunContainer(ctx context.Context, cfg deploy.RunConfig) error {
	port, err := nat.NewPort("tcp", strconv.Itoa(int(cfg.ContainerPort)))
	if err != nil {
		return fmt.Errorf("container port %d: %w", cfg.ContainerPort, err)
	}

	created, err := r.cli.ContainerCreate(ctx,
		&container.Config{
			Image:        cfg.Image,
			ExposedPorts: nat.PortSet{port: struct{}{}},
		},
		&container.HostConfig{
			PortBindings: nat.PortMap{
				port: []nat.PortBinding{{HostPort: strconv.Itoa(int(cfg.HostPort))}},
			},
			RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyUnlessStopped},
		},
		nil, nil, cfg.Name)
	if err != nil {
		return fmt.Errorf("create container %q: %w", cfg.Name, err)
	}

	if err := r.cli.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		// Remove the half-made container so a retry is not blocked by a
		// name conflict.
		if rmErr := r.cli.ContainerRemove(ctx, created.ID, container.RemoveOptions{Force: true}); rmErr != nil && !errdefs.IsNotFound(rmErr) {
			return fmt.Errorf("start container %q: %w (cleanup also failed: %v)", cfg.Name, err, rmErr)
		}
		return fmt.Errorf("start container %q: %w", cfg.Name, err)
	}
	return nil
}

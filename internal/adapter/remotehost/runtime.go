package remotehost

import (
	"context"
	"fmt"
	"strings"

	"skiff/internal/deploy"
)

var _ deploy.ContainerRuntime = (*Runtime)(nil)

// Runtime implements deploy.ContainerRuntime by driving the docker CLI on
// the remote host.
type Runtime struct {
	client *Client
}

// NewRuntime returns a Runtime bound to the given client.
func NewRuntime(client *Client) *Runtime {
	return &Runtime{client: client}
}

func (r *Runtime) ListContainers(ctx context.Context) ([]deploy.ContainerInfo, error) {
	out, err := r.client.RunScriptOutput(ctx, script(
		`$SUDO docker ps -a --format '{{.Names}}\t{{.State}}'`,
	))
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	var infos []deploy.ContainerInfo
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, state, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		infos = append(infos, deploy.ContainerInfo{
			Name:    name,
			Running: state == "running",
		})
	}
	return infos, nil
}

func (r *Runtime) ListImages(ctx context.Context) ([]string, error) {
	out, err := r.client.RunScriptOutput(ctx, script(
		`$SUDO docker images --format '{{.Repository}}:{{.Tag}}'`,
	))
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	var tags []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "<none>") {
			continue
		}
		tags = append(tags, line)
	}
	return tags, nil
}

func (r *Runtime) StopContainer(ctx context.Context, name string) error {
	return r.client.RunScript(ctx, script(
		`$SUDO docker stop `+shellQuote(name),
	))
}

func (r *Runtime) RemoveContainer(ctx context.Context, name string) error {
	return r.client.RunScript(ctx, script(
		`$SUDO docker rm `+shellQuote(name),
	))
}

func (r *Runtime) RemoveImage(ctx context.Context, tag string) error {
	return r.client.RunScript(ctx, script(
		`$SUDO docker rmi `+shellQuote(tag),
	))
}

func (r *Runtime) BuildImage(ctx context.Context, buildPath, tag string) error {
	return r.client.RunScript(ctx, script(
		`$SUDO docker build -t `+shellQuote(tag)+` `+shellQuote(buildPath),
	))
}

func (r *Runtime) RunContainer(ctx context.Context, cfg deploy.RunConfig) error {
	return r.client.RunScript(ctx, script(
		fmt.Sprintf(`$SUDO docker run -d --name %s --restart unless-stopped -p %d:%d %s`,
			shellQuote(cfg.Name), cfg.HostPort, cfg.ContainerPort, shellQuote(cfg.Image)),
	))
}

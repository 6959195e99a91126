package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"skiff/internal/check"
)

// Engine executes convergence and teardown plans against one host through
// the collaborator ports. It holds no state between runs.
type Engine struct {
	Runtime ContainerRuntime
	Proxy   ProxyService // required when targets enable the proxy
	Host    Host
}

// Converge inspects the host, plans, and applies in one pass.
func (e *Engine) Converge(ctx context.Context, target Target) Result {
	insp := Inspector{Runtime: e.Runtime, Proxy: e.Proxy}
	state := insp.Inspect(ctx, target)
	return e.Apply(ctx, PlanConverge(state, target), target)
}

// Apply executes a plan in order. Tolerant action failures are absorbed as
// "already in target state" and logged; the first non-tolerant failure
// stops the run and is classified by the action that caused it.
func (e *Engine) Apply(ctx context.Context, plan []Action, target Target) Result {
	check.Assert(e.Runtime != nil, "Apply: container runtime must not be nil")
	check.Assert(e.Host != nil, "Apply: host must not be nil")
	check.Assert(!target.ProxyEnabled() || e.Proxy != nil, "Apply: proxy-enabled target needs a proxy service")

	for _, action := range plan {
		err := e.run(ctx, action, target)
		if err == nil {
			slog.Debug("action applied", "action", action.Kind.String(), "reason", action.Reason)
			continue
		}
		if action.Tolerant {
			slog.Warn("action failed, treating as already in target state",
				"action", action.Kind.String(), "error", err)
			continue
		}
		return Result{
			FailedAction: action.Kind,
			Class:        classFor(action.Kind),
			Message:      err.Error(),
		}
	}
	return Result{Succeeded: true, Message: "converged"}
}

func (e *Engine) run(ctx context.Context, action Action, target Target) error {
	switch action.Kind {
	case ActionStopContainer:
		return e.Runtime.StopContainer(ctx, target.ContainerName)
	case ActionRemoveContainer:
		return e.Runtime.RemoveContainer(ctx, target.ContainerName)
	case ActionRemoveImage:
		return e.Runtime.RemoveImage(ctx, target.ImageName)
	case ActionBuildImage:
		descriptor := path.Join(target.BuildPath, BuildDescriptor)
		ok, err := e.Host.FileExists(ctx, descriptor)
		if err != nil {
			return fmt.Errorf("probe build descriptor %s: %w", descriptor, err)
		}
		if !ok {
			return fmt.Errorf("missing build descriptor %s: nothing to build", descriptor)
		}
		return e.Runtime.BuildImage(ctx, target.BuildPath, target.ImageName)
	case ActionRunContainer:
		return e.Runtime.RunContainer(ctx, RunConfig{
			Name:          target.ContainerName,
			Image:         target.ImageName,
			HostPort:      target.HostPort,
			ContainerPort: target.ContainerPort,
		})
	case ActionWriteProxyConfig:
		return e.Proxy.WriteConfig(ctx, target.ServerName, ServerBlock(target))
	case ActionLinkProxySite:
		return e.Proxy.LinkSite(ctx, target.ServerName)
	case ActionUnlinkDefaultSite:
		return e.Proxy.UnlinkSite(ctx, DefaultSite)
	case ActionRemoveProxyConfigFile:
		return e.Proxy.RemoveSiteFile(ctx, target.ServerName)
	case ActionValidateProxy:
		return e.Proxy.Validate(ctx)
	case ActionReloadProxy:
		if err := e.Proxy.Reload(ctx); err != nil {
			slog.Warn("proxy reload failed, attempting full restart", "error", err)
			if rerr := e.Proxy.Restart(ctx); rerr != nil {
				return fmt.Errorf("reload: %v; restart: %w", err, rerr)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown action kind %d", action.Kind)
	}
}

// Teardown drives the host to the empty state: every container stopped and
// removed, every image removed, the site gone from both proxy locations,
// proxy reloaded. Teardown is host-wide, matching the blast radius of the
// cleanup mode, and every step tolerates "already absent" — empty input is
// simply a teardown that touches nothing.
func (e *Engine) Teardown(ctx context.Context, site string) Result {
	check.Assert(e.Runtime != nil, "Teardown: container runtime must not be nil")

	removed := 0

	containers, err := e.Runtime.ListContainers(ctx)
	if err != nil {
		slog.Warn("container query failed, skipping container teardown", "error", err)
	}
	for _, c := range containers {
		if c.Running {
			if err := e.Runtime.StopContainer(ctx, c.Name); err != nil {
				slog.Warn("stop failed during teardown", "container", c.Name, "error", err)
			}
		}
		if err := e.Runtime.RemoveContainer(ctx, c.Name); err != nil {
			slog.Warn("remove failed during teardown", "container", c.Name, "error", err)
			continue
		}
		removed++
	}

	images, err := e.Runtime.ListImages(ctx)
	if err != nil {
		slog.Warn("image query failed, skipping image teardown", "error", err)
	}
	for _, tag := range images {
		if err := e.Runtime.RemoveImage(ctx, tag); err != nil {
			slog.Warn("image remove failed during teardown", "image", tag, "error", err)
			continue
		}
		removed++
	}

	if site != "" && e.Proxy != nil {
		if err := e.Proxy.UnlinkSite(ctx, site); err != nil {
			slog.Warn("site unlink failed during teardown", "site", site, "error", err)
		}
		if err := e.Proxy.RemoveSiteFile(ctx, site); err != nil {
			slog.Warn("site file removal failed during teardown", "site", site, "error", err)
		}
		if err := e.Proxy.Reload(ctx); err != nil {
			slog.Warn("proxy reload failed during teardown", "error", err)
		}
	}

	return Result{
		Succeeded: true,
		Message:   fmt.Sprintf("teardown complete, %d resources removed", removed),
	}
}

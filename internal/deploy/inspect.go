package deploy

import (
	"context"
	"log/slog"
)

// Inspector builds a HostState snapshot through read-only queries.
//
// A failed query degrades to "absent" for that resource: an unreachable
// resource plans the same as a missing one, and the actions that would
// touch it are tolerant anyway. Inspection therefore never aborts a run.
type Inspector struct {
	Runtime ContainerRuntime
	Proxy   ProxyService
}

// Inspect queries the host for the presence of the target's container,
// image, and proxy site. Read-only; called fresh before every plan.
func (i *Inspector) Inspect(ctx context.Context, target Target) HostState {
	var state HostState

	containers, err := i.Runtime.ListContainers(ctx)
	if err != nil {
		slog.Warn("container query failed, treating container as absent", "error", err)
	}
	for _, c := range containers {
		if c.Name == target.ContainerName {
			state.ContainerExists = true
			state.ContainerRunning = c.Running
			break
		}
	}

	images, err := i.Runtime.ListImages(ctx)
	if err != nil {
		slog.Warn("image query failed, treating image as absent", "error", err)
	}
	for _, tag := range images {
		if tag == target.ImageName {
			state.ImageExists = true
			break
		}
	}

	if !target.ProxyEnabled() {
		return state
	}

	site, err := i.Proxy.SiteState(ctx, target.ServerName)
	if err != nil {
		slog.Warn("proxy site query failed, treating site as absent", "site", target.ServerName, "error", err)
	} else {
		state.SiteFileExists = site.FileExists
		state.SiteLinked = site.Linked
	}

	stock, err := i.Proxy.SiteState(ctx, DefaultSite)
	if err != nil {
		slog.Warn("stock site query failed, treating site as absent", "error", err)
	} else {
		state.DefaultSiteLinked = stock.Linked
	}

	return state
}

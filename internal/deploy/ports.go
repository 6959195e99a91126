package deploy

import "context"

// ContainerRuntime is the engine's view of the container daemon on the
// target host. Mutating operations must be idempotent at the command level:
// stopping a stopped container or removing a missing image reports an error
// the planner may tolerate, never a crash.
type ContainerRuntime interface {
	ListContainers(ctx context.Context) ([]ContainerInfo, error)
	ListImages(ctx context.Context) ([]string, error)
	StopContainer(ctx context.Context, name string) error
	RemoveContainer(ctx context.Context, name string) error
	RemoveImage(ctx context.Context, tag string) error
	BuildImage(ctx context.Context, buildPath, tag string) error
	RunContainer(ctx context.Context, cfg RunConfig) error
}

// ProxyService manages reverse-proxy sites on the target host.
type ProxyService interface {
	SiteState(ctx context.Context, site string) (SiteState, error)
	WriteConfig(ctx context.Context, site, serverBlock string) error
	LinkSite(ctx context.Context, site string) error
	UnlinkSite(ctx context.Context, site string) error
	RemoveSiteFile(ctx context.Context, site string) error
	Validate(ctx context.Context) error
	Reload(ctx context.Context) error
	Restart(ctx context.Context) error
}

// Host exposes the non-container facts the engine needs about the target.
type Host interface {
	FileExists(ctx context.Context, path string) (bool, error)
}

// Probe checks reachability before any remote mutation. Ping is advisory
// (ICMP is often filtered while the control channel still works);
// CheckChannel failing is fatal since nothing downstream can proceed.
type Probe interface {
	Ping(ctx context.Context) error
	CheckChannel(ctx context.Context) error
}

// Provisioner installs the prerequisites a fresh host is missing.
type Provisioner interface {
	EnsurePrerequisites(ctx context.Context) error
}

// CopyStatus is the per-item outcome of a file transfer.
type CopyStatus struct {
	Path string
	Err  error
}

// Transfer syncs local paths to a directory on the target host. Transfers
// are best-effort: per-item failures come back as statuses, not an abort.
type Transfer interface {
	Copy(ctx context.Context, localPaths []string, remoteDir string) []CopyStatus
}

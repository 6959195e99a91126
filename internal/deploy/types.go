// Package deploy implements the convergence engine that drives a single
// host to "one built image, one running container, one enabled proxy site",
// and its inverse, teardown. The engine plans an ordered action list from a
// fresh host snapshot and executes it through narrow collaborator ports, so
// the same logic runs against SSH-backed adapters, the local Docker daemon,
// or in-memory fakes.
package deploy

import "strings"

// BuildDescriptor is the conventional build file the engine requires at the
// resolved build path before attempting an image build.
const BuildDescriptor = "Dockerfile"

// DefaultSite is the stock proxy site shipped by the distribution package.
// A linked stock site shadows ours, so convergence unlinks it.
const DefaultSite = "default"

// Target is the desired end state for one run. Immutable once constructed.
type Target struct {
	ContainerName string
	ImageName     string
	HostPort      uint16
	ContainerPort uint16
	ServerName    string // proxy server_name; empty disables proxy wiring
	BuildPath     string // resolved directory holding the build descriptor
}

// ProxyEnabled reports whether this run manages a proxy site at all.
// Local-daemon deploys leave ServerName empty.
func (t Target) ProxyEnabled() bool {
	return strings.TrimSpace(t.ServerName) != ""
}

// HostState is a snapshot of remote reality. It is constructed fresh on
// every inspection and never cached across runs: the host may have been
// altered out-of-band.
type HostState struct {
	ContainerExists   bool
	ContainerRunning  bool
	ImageExists       bool
	SiteFileExists    bool
	SiteLinked        bool
	DefaultSiteLinked bool
}

// Empty reports whether nothing managed by skiff is present on the host.
func (s HostState) Empty() bool {
	return !s.ContainerExists && !s.ContainerRunning && !s.ImageExists &&
		!s.SiteFileExists && !s.SiteLinked
}

// ContainerInfo is the runtime's view of one container.
type ContainerInfo struct {
	Name    string
	Running bool
}

// RunConfig describes the single container a converged host runs.
type RunConfig struct {
	Name          string
	Image         string
	HostPort      uint16
	ContainerPort uint16
}

// SiteState is the proxy's view of one site.
type SiteState struct {
	FileExists bool // config present in the available-sites location
	Linked     bool // config linked into the enabled-sites location
}

// ActionKind names one step of a convergence or teardown plan.
type ActionKind uint8

const (
	ActionStopContainer ActionKind = iota + 1
	ActionRemoveContainer
	ActionRemoveImage
	ActionBuildImage
	ActionRunContainer
	ActionWriteProxyConfig
	ActionLinkProxySite
	ActionUnlinkDefaultSite
	ActionRemoveProxyConfigFile
	ActionValidateProxy
	ActionReloadProxy
)

func (k ActionKind) String() string {
	switch k {
	case ActionStopContainer:
		return "stop_container"
	case ActionRemoveContainer:
		return "remove_container"
	case ActionRemoveImage:
		return "remove_image"
	case ActionBuildImage:
		return "build_image"
	case ActionRunContainer:
		return "run_container"
	case ActionWriteProxyConfig:
		return "write_proxy_config"
	case ActionLinkProxySite:
		return "link_proxy_site"
	case ActionUnlinkDefaultSite:
		return "unlink_default_site"
	case ActionRemoveProxyConfigFile:
		return "remove_proxy_config_file"
	case ActionValidateProxy:
		return "validate_proxy"
	case ActionReloadProxy:
		return "reload_proxy"
	default:
		return "unknown"
	}
}

func (k ActionKind) IsValid() bool {
	return k >= ActionStopContainer && k <= ActionReloadProxy
}

// Action is one step of a plan. Tolerant actions absorb execution failure as
// "already in target state" — the goal is the post-condition, not the
// command's own success flag. Non-tolerant actions abort the run.
type Action struct {
	Kind     ActionKind
	Tolerant bool
	Reason   string
}

// Result is the terminal outcome of one convergence or teardown run.
type Result struct {
	Succeeded    bool
	FailedAction ActionKind // zero when Succeeded
	Class        FailureClass
	Message      string
}

// Err returns nil for a successful result, otherwise a *RunError carrying
// the failure class and the action that stopped the run.
func (r Result) Err() error {
	if r.Succeeded {
		return nil
	}
	return &RunError{Class: r.Class, Action: r.FailedAction, Message: r.Message}
}

// RunError is a fatal run failure with enough context for the caller to
// report which phase broke without parsing the message.
type RunError struct {
	Class   FailureClass
	Action  ActionKind
	Message string
}

func (e *RunError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Action == 0 {
		return e.Class.String() + ": " + e.Message
	}
	return e.Class.String() + ": " + e.Action.String() + ": " + e.Message
}

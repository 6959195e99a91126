package deploy

// FailureClass partitions fatal outcomes by how far the run got and what
// state it left behind. Build failures leave the old container and image
// removed with nothing running; proxy failures leave the new container up
// but not yet reachable through the proxy. Callers report the two
// differently, so the distinction is structural, not just a message.
type FailureClass uint8

const (
	ClassNone FailureClass = iota
	ClassLocal
	ClassConnectivity
	ClassBuild
	ClassRun
	ClassProxy
)

func (c FailureClass) String() string {
	switch c {
	case ClassNone:
		return "ok"
	case ClassLocal:
		return "local"
	case ClassConnectivity:
		return "connectivity"
	case ClassBuild:
		return "build"
	case ClassRun:
		return "run"
	case ClassProxy:
		return "proxy"
	default:
		return "unknown"
	}
}

func (c FailureClass) IsValid() bool {
	return c <= ClassProxy
}

// classFor maps a failed action to its failure class. Cleanup actions are
// grouped with build: they only run to make room for the rebuild.
func classFor(kind ActionKind) FailureClass {
	switch kind {
	case ActionStopContainer, ActionRemoveContainer, ActionRemoveImage, ActionBuildImage:
		return ClassBuild
	case ActionRunContainer:
		return ClassRun
	case ActionWriteProxyConfig, ActionLinkProxySite, ActionUnlinkDefaultSite,
		ActionRemoveProxyConfigFile, ActionValidateProxy, ActionReloadProxy:
		return ClassProxy
	default:
		return ClassNone
	}
}

package deploy

// PlanConverge computes the ordered action list that drives state to
// target. The order is fixed because each step establishes a precondition
// for the next: the old container must release its name before the new one
// can claim it, the old image tag must clear before the rebuild, the build
// must succeed before anything runs, and the proxy config must validate
// before the service reloads.
func PlanConverge(state HostState, target Target) []Action {
	actions := make([]Action, 0, 10)

	if state.ContainerExists {
		actions = append(actions,
			Action{Kind: ActionStopContainer, Tolerant: true, Reason: "release container name"},
			Action{Kind: ActionRemoveContainer, Tolerant: true, Reason: "release container name"},
		)
	}
	if state.ImageExists {
		actions = append(actions,
			Action{Kind: ActionRemoveImage, Tolerant: true, Reason: "clear tag for rebuild"},
		)
	}

	actions = append(actions,
		Action{Kind: ActionBuildImage, Reason: "build " + target.ImageName},
		Action{Kind: ActionRunContainer, Reason: "run " + target.ContainerName},
	)

	if !target.ProxyEnabled() {
		return actions
	}

	// Site config is regenerated from the target on every run, never
	// hand-edited, so the write is unconditional.
	actions = append(actions,
		Action{Kind: ActionWriteProxyConfig, Reason: "regenerate site config"},
		Action{Kind: ActionLinkProxySite, Reason: "enable site"},
	)
	if state.DefaultSiteLinked {
		actions = append(actions,
			Action{Kind: ActionUnlinkDefaultSite, Tolerant: true, Reason: "stock site shadows ours"},
		)
	}
	actions = append(actions,
		Action{Kind: ActionValidateProxy, Reason: "gate reload on valid config"},
		Action{Kind: ActionReloadProxy, Reason: "apply site config"},
	)

	return actions
}

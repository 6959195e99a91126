package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Orchestrator sequences one full run: local precondition checks, then
// connectivity, then file sync, then engine convergence or teardown. It is
// the single point that translates internal failures into a terminal
// Result; nothing below it decides the process exit status.
//
// Probe, Provision, and Transfer are optional. Local-daemon runs leave all
// three nil and skip straight from the descriptor check to the engine.
type Orchestrator struct {
	Probe     Probe
	Provision Provisioner
	Transfer  Transfer
	Engine    *Engine
}

// DeployParams collects the per-run inputs the orchestrator needs beyond
// the target itself.
type DeployParams struct {
	LocalDir string // checkout that must contain the build descriptor
	Target   Target
}

// Deploy runs the full deployment sequence. The local descriptor check
// runs before anything touches the host: with no build file there is
// nothing to deploy, and the run ends with zero remote commands issued.
func (o *Orchestrator) Deploy(ctx context.Context, params DeployParams) Result {
	descriptor := filepath.Join(params.LocalDir, BuildDescriptor)
	if _, err := os.Stat(descriptor); err != nil {
		return Result{
			Class:   ClassLocal,
			Message: fmt.Sprintf("missing %s in %s: nothing to deploy", BuildDescriptor, params.LocalDir),
		}
	}

	if res, ok := o.checkConnectivity(ctx); !ok {
		return res
	}

	if o.Provision != nil {
		if err := o.Provision.EnsurePrerequisites(ctx); err != nil {
			return Result{
				Class:   ClassConnectivity,
				Message: fmt.Sprintf("prerequisite installation failed: %v", err),
			}
		}
	}

	if o.Transfer != nil {
		for _, st := range o.Transfer.Copy(ctx, []string{params.LocalDir}, params.Target.BuildPath) {
			if st.Err != nil {
				slog.Warn("file sync failed, continuing", "path", st.Path, "error", st.Err)
			}
		}
	}

	res := o.Engine.Converge(ctx, params.Target)
	o.report(res)
	return res
}

// Teardown verifies the control channel and drives the host to empty.
func (o *Orchestrator) Teardown(ctx context.Context, site string) Result {
	if res, ok := o.checkConnectivity(ctx); !ok {
		return res
	}
	res := o.Engine.Teardown(ctx, site)
	o.report(res)
	return res
}

// checkConnectivity runs the soft ping probe and the fatal control-channel
// check. Ping failure is advisory only: ICMP may be filtered while the
// channel still works.
func (o *Orchestrator) checkConnectivity(ctx context.Context) (Result, bool) {
	if o.Probe == nil {
		return Result{}, true
	}
	if err := o.Probe.Ping(ctx); err != nil {
		slog.Warn("ping probe failed, continuing", "error", err)
	}
	if err := o.Probe.CheckChannel(ctx); err != nil {
		return Result{
			Class:   ClassConnectivity,
			Message: fmt.Sprintf("control channel unreachable: %v", err),
		}, false
	}
	return Result{}, true
}

func (o *Orchestrator) report(res Result) {
	if res.Succeeded {
		slog.Info("run succeeded", "message", res.Message)
		return
	}
	attrs := []any{"class", res.Class.String(), "message", res.Message}
	if res.FailedAction != 0 {
		attrs = append(attrs, "action", res.FailedAction.String())
	}
	slog.Error("run failed", attrs...)
}
